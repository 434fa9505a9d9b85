// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"seedfast/qbase/pkg/quickbase"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var schemaRefresh bool

type fieldEntry struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	BaseType string `json:"base_type,omitempty"`
}

var schemaCmd = &cobra.Command{
	Use:   "schema [table]",
	Short: "List the fields of a table, or of the application without an argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		dbID, err := tableDBID(c, name)
		if err != nil {
			return err
		}
		if schemaRefresh {
			if err := c.InvalidateSchema(ctx, dbID); err != nil {
				return err
			}
		}
		s, err := c.Schema(ctx, dbID)
		if err != nil {
			return err
		}
		return printSchema(s)
	},
}

func printSchema(s *quickbase.Schema) error {
	entries := make([]fieldEntry, 0, len(s.Fields))
	for _, f := range s.Fields {
		entries = append(entries, fieldEntry{ID: f.ID, Label: f.Label, Type: string(f.Type), BaseType: f.BaseType})
	}
	if jsonOutput {
		return printJSON(entries)
	}
	if s.Name != "" {
		pterm.DefaultSection.Println(s.Name)
	}
	rows := [][]string{{"ID", "Label", "Type", "Base type"}}
	for _, e := range entries {
		rows = append(rows, []string{e.ID, e.Label, e.Type, e.BaseType})
	}
	return printTable(rows)
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaRefresh, "refresh", false, "Drop any cached schema first")
}
