// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"seedfast/qbase/internal/mirror"
	"seedfast/qbase/pkg/quickbase"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	changedClear    bool
	changedMirror   bool
	changedKeyField string
)

var changedCmd = &cobra.Command{
	Use:   "changed <table>",
	Short: "Fetch records changed since the flags were last cleared",
	Long: `The changed command returns the records QuickBase has flagged as new or
modified. With --clear the flags are reset afterwards, so the next run only
sees later changes. With --mirror the records are also upserted into the
Postgres database configured by 'qbase connect'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		dbID, err := tableDBID(c, args[0])
		if err != nil {
			return err
		}

		var m *mirror.Mirror
		if changedMirror {
			// Open the mirror before clearing flags so a bad DSN does not lose changes.
			dsn, _, err := resolver().MirrorDSN()
			if err != nil {
				return err
			}
			if m, err = mirror.Open(ctx, dsn, logger.Named("mirror")); err != nil {
				return err
			}
			defer m.Close()
			if err := m.EnsureSchema(ctx); err != nil {
				return err
			}
		}

		var res *quickbase.QueryResult
		err = withSpinner("Fetching changed records", func() error {
			var err error
			res, err = c.GetChangedRecords(ctx, dbID, changedClear && m == nil)
			return err
		})
		if err != nil {
			return err
		}

		if m != nil {
			n, err := m.Upsert(ctx, dbID, changedKeyField, res.Records)
			if err != nil {
				return err
			}
			if changedClear {
				if err := c.ClearFlags(ctx, dbID); err != nil {
					logger.Warn("records mirrored but flags not cleared", zap.Error(err))
				}
			}
			if !jsonOutput {
				pterm.Success.Printf("Mirrored %d record(s) from %s\n", n, args[0])
			}
		}
		return printRecords(res)
	},
}

func init() {
	rootCmd.AddCommand(changedCmd)
	changedCmd.Flags().BoolVar(&changedClear, "clear", false, "Clear the change flags after reading")
	changedCmd.Flags().BoolVar(&changedMirror, "mirror", false, "Upsert the records into the mirror database")
	changedCmd.Flags().StringVar(&changedKeyField, "key", mirror.DefaultKeyField, "Record element used as the mirror key")
}
