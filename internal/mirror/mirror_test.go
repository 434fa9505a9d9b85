// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package mirror

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"seedfast/qbase/pkg/quickbase"
)

func newMirror(t *testing.T) (*Mirror, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	m := New(mock, zaptest.NewLogger(t))
	m.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m, mock
}

func record(kv ...string) quickbase.Record {
	var r quickbase.Record
	for i := 0; i+1 < len(kv); i += 2 {
		r.Fields = append(r.Fields, quickbase.FieldValue{Name: kv[i], Value: kv[i+1]})
	}
	return r
}

func TestEnsureSchema(t *testing.T) {
	m, mock := newMirror(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS qbase_records")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, m.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaError(t *testing.T) {
	m, mock := newMirror(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err := m.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestUpsert(t *testing.T) {
	m, mock := newMirror(t)
	at := m.now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qbase_records")).
		WithArgs("bqtsk0002", "7", []byte(`{"record_id_":"7","status":"Open"}`), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qbase_records")).
		WithArgs("bqtsk0002", "8", []byte(`{"record_id_":"8","status":"Closed"}`), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := m.Upsert(context.Background(), "bqtsk0002", "", []quickbase.Record{
		record("record_id_", "7", "status", "Open"),
		record("status", "orphan"),
		record("record_id_", "8", "status", "Closed"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRollsBackOnError(t *testing.T) {
	m, mock := newMirror(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qbase_records").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := m.Upsert(context.Background(), "bqtsk0002", "record_id_", []quickbase.Record{
		record("record_id_", "7"),
	})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "upsert record 7")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCommitFailure(t *testing.T) {
	m, mock := newMirror(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qbase_records").
		WithArgs("bqtsk0002", "7", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	n, err := m.Upsert(context.Background(), "bqtsk0002", "", []quickbase.Record{record("record_id_", "7")})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "commit")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCustomKeyField(t *testing.T) {
	m, mock := newMirror(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qbase_records").
		WithArgs("bqcnt0003", "jdoe@example.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := m.Upsert(context.Background(), "bqcnt0003", "email", []quickbase.Record{
		record("record_id_", "1", "email", "jdoe@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCount(t *testing.T) {
	m, mock := newMirror(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM qbase_records WHERE dbid = $1")).
		WithArgs("bqtsk0002").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := m.Count(context.Background(), "bqtsk0002")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
