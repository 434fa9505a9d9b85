// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"seedfast/qbase/internal/auth"
	"seedfast/qbase/internal/keychain"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutAll bool

// logoutCmd removes stored secrets from the OS keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove saved QuickBase credentials",
	Long: `The logout command removes the username, password and application token
saved by 'qbase login'. With --all the mirror database connection is removed too.
QuickBase tickets are not revoked; they expire on their own.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Warning.Println("Secure storage is not available; nothing to remove.")
			return nil
		}
		if logoutAll {
			err = km.ClearAll()
		} else {
			err = auth.ClearCredentials(km)
		}
		if err != nil {
			return err
		}
		if logoutAll {
			pterm.Success.Println("All credentials and the mirror connection have been removed")
		} else {
			pterm.Success.Println("QuickBase credentials have been removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Also remove the mirror database connection")
}
