// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"seedfast/qbase/pkg/quickbase"

	"github.com/spf13/cobra"
)

var (
	queryWhere []string
	queryAll   bool
)

var getCmd = &cobra.Command{
	Use:   "get <table> <record-id>",
	Short: "Fetch one record by its record id",
	Args:  cobra.ExactArgs(2),
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
		res, err := c.GetRecord(ctx, dbID, args[1])
		if err != nil {
			return err
		}
		return printRecords(res)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Query records by field label",
	Long: `The query command fetches the records of a table that match every --where
condition. A condition is "<label> <op> <value>" where op is one of
>=, >, <, <=, contains, ncontain, is or nis. Field labels are matched exactly.

  qbase query tasks --where "Status is Open" --where "Priority>=3"
  qbase query tasks --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conds, err := parseWhere(queryWhere, queryAll)
		if err != nil {
			return err
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
		var res *quickbase.QueryResult
		if queryAll {
			res, err = c.GetAllRecords(ctx, dbID)
		} else {
			res, err = c.GetRecords(ctx, dbID, conds)
		}
		if err != nil {
			return err
		}
		return printRecords(res)
	},
}

// parseWhere checks the flag combination before any network traffic.
func parseWhere(where []string, all bool) (quickbase.Conditions, error) {
	switch {
	case all && len(where) > 0:
		return nil, errors.New("--all and --where are mutually exclusive")
	case all:
		return nil, nil
	case len(where) == 0:
		return nil, errors.New("give at least one --where condition, or --all")
	}
	conds := make(quickbase.Conditions, 0, len(where))
	for _, w := range where {
		cond, err := quickbase.ParseCondition(w)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, conds.Validate()
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVarP(&queryWhere, "where", "w", nil, `Condition such as "Priority>=3" (repeatable)`)
	queryCmd.Flags().BoolVar(&queryAll, "all", false, "Return every record")
}
