// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"seedfast/qbase/internal/auth"
	"seedfast/qbase/internal/config"
	"seedfast/qbase/internal/keychain"
	"seedfast/qbase/internal/terminal"
	"seedfast/qbase/pkg/quickbase"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// loginCmd asks for QuickBase credentials, verifies them by opening the
// application, and stores them in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in to QuickBase and remember the credentials",
	Long: `The login command prompts for your QuickBase username, password, application
token and application name. It signs in, resolves the application, and on
success saves the secrets in the OS keychain and the host and application in
the config file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		km, err := keychain.GetManager()
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			pterm.Println("  Set QBASE_USERNAME, QBASE_PASSWORD and QBASE_APPTOKEN instead.")
			return err
		}

		p := terminal.NewPrompter()
		existing, _, _ := (auth.Resolver{Store: km}).Credentials()

		host, err := p.Ask("QuickBase host", settings.Host)
		if err != nil {
			return err
		}
		var creds quickbase.Credentials
		if creds.Username, err = p.Ask("Username", existing.Username); err != nil {
			return err
		}
		if creds.Password, err = p.AskSecret("Password"); err != nil {
			return err
		}
		if creds.AppToken, err = p.AskSecret("Application token"); err != nil {
			return err
		}
		app, err := p.Ask("Application", settings.Application)
		if err != nil {
			return err
		}

		settings.Host = host
		settings.Application = app

		opts, err := clientOptions(ctx)
		if err != nil {
			return err
		}
		var c *quickbase.Client
		err = withSpinner("Signing in", func() error {
			var err error
			c, err = quickbase.New(ctx, clientConfig(creds), opts...)
			return err
		})
		if err != nil {
			return err
		}

		if err := auth.SaveCredentials(km, creds); err != nil {
			pterm.Error.Println("Failed to save credentials securely.")
			return err
		}
		if err := config.Save(settings, configPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		pterm.Success.Printf("Signed in as %s\n", creds.Username)
		pterm.Printf("  Application %s (%s), %d table(s)\n", c.Application(), c.Database().AppDBID, len(c.TableNames()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
