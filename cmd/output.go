// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"io"
	"os"

	"seedfast/qbase/pkg/quickbase"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// recordColumns returns field names in order of first appearance.
func recordColumns(records []quickbase.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		for _, f := range r.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				cols = append(cols, f.Name)
			}
		}
	}
	return cols
}

// recordRows builds a header row plus one row per record. Missing fields are
// rendered empty.
func recordRows(records []quickbase.Record) [][]string {
	cols := recordColumns(records)
	rows := [][]string{cols}
	for _, r := range records {
		m := r.Map()
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = m[c]
		}
		rows = append(rows, row)
	}
	return rows
}

func printRecords(res *quickbase.QueryResult) error {
	if jsonOutput {
		out := make([]map[string]string, 0, len(res.Records))
		for _, r := range res.Records {
			out = append(out, r.Map())
		}
		return printJSON(out)
	}
	if len(res.Records) == 0 {
		pterm.Info.Println("No records")
		return nil
	}
	if err := printTable(recordRows(res.Records)); err != nil {
		return err
	}
	pterm.Printf("%d record(s)\n", len(res.Records))
	return nil
}

func printTable(rows [][]string) error {
	return pterm.DefaultTable.WithHasHeader().WithWriter(stdout).WithData(rows).Render()
}
