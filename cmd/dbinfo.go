// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"seedfast/qbase/internal/logging"
	"seedfast/qbase/internal/mirror"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd shows the mirror DSN with the password masked and, given a
// table, how many of its records are mirrored.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo [table]",
	Short: "Show the mirror database connection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, src, err := resolver().MirrorDSN()
		if err != nil {
			pterm.Warning.Println("No mirror database configured")
			pterm.Println("  Please run: qbase connect")
			return nil
		}

		masked := logging.Mask(dsn)
		if info, err := mirror.ParseDSN(dsn); err == nil {
			masked = info.Redacted()
		}
		pterm.Printf("Using DSN from %s\n\n", src)
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Mirror Database")).
			WithPadding(1).
			Println(masked)

		if len(args) == 0 {
			return nil
		}
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		dbID, err := tableDBID(c, args[0])
		if err != nil {
			return err
		}
		m, err := mirror.Open(ctx, dsn, logger.Named("mirror"))
		if err != nil {
			return err
		}
		defer m.Close()
		n, err := m.Count(ctx, dbID)
		if err != nil {
			return err
		}
		pterm.Printf("%s (%s): %d mirrored record(s)\n", args[0], dbID, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
