// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"seedfast/qbase/internal/auth"
	"seedfast/qbase/internal/config"
	"seedfast/qbase/internal/keychain"
	"seedfast/qbase/internal/qbtest"
	"seedfast/qbase/pkg/quickbase"

	"github.com/99designs/keyring"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so successive runs in one
// process do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command against srv with env credentials and
// returns what was written to stdout.
func runCLI(t *testing.T, srv *qbtest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvHost, srv.URL)
	t.Setenv(config.EnvApp, qbtest.AppName)
	t.Setenv(auth.EnvUsername, qbtest.Username)
	t.Setenv(auth.EnvPassword, qbtest.Password)
	t.Setenv(auth.EnvAppToken, qbtest.AppToken)

	ring := keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))
	prevStore, prevOut := secretStore, stdout
	secretStore = func() (auth.SecretStore, error) { return ring, nil }
	var out bytes.Buffer
	stdout = &out
	t.Cleanup(func() {
		secretStore, stdout = prevStore, prevOut
		resetFlags(rootCmd)
	})

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseWhere(t *testing.T) {
	conds, err := parseWhere([]string{"Status is Open", "Priority>=3"}, false)
	require.NoError(t, err)
	assert.Equal(t, quickbase.Conditions{
		quickbase.Where("Status", quickbase.OpIs, "Open"),
		quickbase.Where("Priority", quickbase.OpGTE, "3"),
	}, conds)

	conds, err = parseWhere(nil, true)
	require.NoError(t, err)
	assert.Nil(t, conds)

	_, err = parseWhere([]string{"Status is Open"}, true)
	assert.Error(t, err)
	_, err = parseWhere(nil, false)
	assert.Error(t, err)
	_, err = parseWhere([]string{"Status"}, false)
	assert.ErrorIs(t, err, quickbase.ErrInvalidArgument)
}

func TestRecordRows(t *testing.T) {
	records := []quickbase.Record{
		{Fields: []quickbase.FieldValue{{Name: "record_id_", Value: "7"}, {Name: "status", Value: "Open"}}},
		{Fields: []quickbase.FieldValue{{Name: "record_id_", Value: "8"}, {Name: "notes", Value: "late"}}},
	}
	assert.Equal(t, [][]string{
		{"record_id_", "status", "notes"},
		{"7", "Open", ""},
		{"8", "", "late"},
	}, recordRows(records))
}

func TestQueryCommandJSON(t *testing.T) {
	srv := qbtest.NewStandard(t)
	out, err := runCLI(t, srv, "query", "tasks", "--where", "Status is Open", "--json")
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "7", got[0]["record_id_"])

	q := srv.CallsFor(qbtest.ActionDoQuery)
	require.Len(t, q, 1)
	assert.Equal(t, qbtest.TasksDBID, q[0].DBID)
	assert.Equal(t, "{'6'.EX.'Open'}", q[0].Query)
}

func TestQueryCommandRejectsBadFlagsOffline(t *testing.T) {
	srv := qbtest.NewStandard(t)
	_, err := runCLI(t, srv, "query", "tasks", "--all", "--where", "Status is Open")
	require.Error(t, err)
	assert.Empty(t, srv.Calls())
}

func TestGetCommandUnknownTable(t *testing.T) {
	srv := qbtest.NewStandard(t)
	_, err := runCLI(t, srv, "get", "invoices", "7", "--json")
	require.Error(t, err)
	assert.ErrorIs(t, err, quickbase.ErrResolution)
}

func TestTablesCommandJSON(t *testing.T) {
	srv := qbtest.NewStandard(t)
	out, err := runCLI(t, srv, "tables", "--json")
	require.NoError(t, err)

	var got []tableEntry
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []tableEntry{
		{Name: "contacts", DBID: qbtest.ContactDBID},
		{Name: "tasks", DBID: qbtest.TasksDBID},
	}, got)
}

func TestChangedCommandClearsFlags(t *testing.T) {
	srv := qbtest.NewStandard(t)
	out, err := runCLI(t, srv, "changed", "tasks", "--clear", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "Closed"`)

	clears := srv.CallsFor(qbtest.ActionClearFlags)
	require.Len(t, clears, 1)
	assert.Equal(t, qbtest.TasksDBID, clears[0].DBID)
}

func TestWhoamiCommandJSON(t *testing.T) {
	srv := qbtest.NewStandard(t)
	out, err := runCLI(t, srv, "whoami", "--json")
	require.NoError(t, err)

	var got whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, qbtest.Username, got.Username)
	assert.Equal(t, qbtest.AppDBID, got.AppDBID)
	assert.Equal(t, string(auth.SourceEnv), got.Source)
}
