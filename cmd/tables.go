// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type tableEntry struct {
	Name string `json:"name"`
	DBID string `json:"dbid"`
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the application's tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		entries := []tableEntry{}
		for _, name := range c.TableNames() {
			id, err := c.TableID(name)
			if err != nil {
				return err
			}
			entries = append(entries, tableEntry{Name: name, DBID: id})
		}
		if jsonOutput {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			pterm.Info.Printf("Application %s has no child tables\n", c.Application())
			return nil
		}
		rows := [][]string{{"Table", "DBID"}}
		for _, e := range entries {
			rows = append(rows, []string{e.Name, e.DBID})
		}
		return printTable(rows)
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
