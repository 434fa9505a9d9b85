// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package mirror copies QuickBase records into a Postgres table.
//
// Each record is stored as a jsonb document keyed by (dbid, record id), so
// repeated `qbase changed --mirror` runs converge on the latest values.
package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"seedfast/qbase/pkg/quickbase"
)

// DefaultKeyField is the element API_DoQuery uses for the record id.
const DefaultKeyField = "record_id_"

// PgxPool is the subset of *pgxpool.Pool the mirror uses. pgxmock
// implements it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS qbase_records (
	dbid        text        NOT NULL,
	record_id   text        NOT NULL,
	fields      jsonb       NOT NULL,
	mirrored_at timestamptz NOT NULL,
	PRIMARY KEY (dbid, record_id)
)`

const upsertSQL = `INSERT INTO qbase_records (dbid, record_id, fields, mirrored_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (dbid, record_id) DO UPDATE SET fields = EXCLUDED.fields, mirrored_at = EXCLUDED.mirrored_at`

const countSQL = `SELECT count(*) FROM qbase_records WHERE dbid = $1`

// Mirror writes records to Postgres.
type Mirror struct {
	Pool PgxPool
	log  *zap.Logger
	now  func() time.Time
}

// New wraps an existing pool.
func New(pool PgxPool, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{Pool: pool, log: log, now: time.Now}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Mirror, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping mirror database: %w", err)
	}
	return New(pool, log), nil
}

// Close closes the pool.
func (m *Mirror) Close() { m.Pool.Close() }

// EnsureSchema creates the records table when it does not exist.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.Pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create qbase_records: %w", err)
	}
	return nil
}

// Upsert stores records for dbID in one transaction and returns how many
// were written. Records without keyField are skipped.
func (m *Mirror) Upsert(ctx context.Context, dbID, keyField string, records []quickbase.Record) (n int, err error) {
	if keyField == "" {
		keyField = DefaultKeyField
	}
	tx, err := m.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit: %w", e)
			n = 0
		}
	}()

	at := m.now().UTC()
	for i, rec := range records {
		key, ok := rec.Get(keyField)
		if !ok || key == "" {
			m.log.Debug("mirror skipping record without key", zap.Int("index", i), zap.String("key_field", keyField))
			continue
		}
		doc, err := json.Marshal(rec.Map())
		if err != nil {
			return 0, fmt.Errorf("encode record %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, upsertSQL, dbID, key, doc, at); err != nil {
			return 0, fmt.Errorf("upsert record %s: %w", key, err)
		}
		n++
	}
	m.log.Info("mirrored records", zap.String("dbid", dbID), zap.Int("count", n))
	return n, nil
}

// Count returns how many records of dbID are mirrored.
func (m *Mirror) Count(ctx context.Context, dbID string) (int64, error) {
	var n int64
	if err := m.Pool.QueryRow(ctx, countSQL, dbID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mirrored records: %w", err)
	}
	return n, nil
}
