// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"seedfast/qbase/internal/auth"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type whoamiOutput struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	Source      string `json:"credentials_source"`
	Host        string `json:"host"`
	Application string `json:"application"`
	AppDBID     string `json:"app_dbid"`
}

// whoamiCmd signs in with the stored credentials and shows who we are.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and application",
	Long: `The whoami command signs in with the stored or environment credentials and
prints the QuickBase user id and the resolved application dbid.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		creds, src, err := resolver().Credentials()
		if errors.Is(err, auth.ErrNotLoggedIn) {
			pterm.Println("You're not logged in yet.")
			pterm.Println("  Run 'qbase login' to get started.")
			return nil
		}
		if err != nil {
			return err
		}

		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		out := whoamiOutput{
			Username:    creds.Username,
			UserID:      c.Session().UserID,
			Source:      string(src),
			Host:        settings.Host,
			Application: c.Application(),
			AppDBID:     c.Database().AppDBID,
		}
		if jsonOutput {
			return printJSON(out)
		}
		pterm.Printf("Current user: %s (%s)\n", out.Username, out.UserID)
		pterm.Printf("Application:  %s (%s) on %s\n", out.Application, out.AppDBID, out.Host)
		pterm.Printf("Credentials:  %s\n", out.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
