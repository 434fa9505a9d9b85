// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// An empty dbID in the methods below means the active application.

// GetRecord fetches the record whose record id field equals recordID. The
// result holds zero or one record; cardinality is not enforced.
func (c *Client) GetRecord(ctx context.Context, dbID string, recordID any) (*QueryResult, error) {
	if recordID == nil || formatValue(recordID) == "" {
		return nil, newError(InvalidArgument, "a record number is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dbID = c.dbOrActive(dbID)
	s, err := c.recordIDSchema(ctx, dbID)
	if err != nil {
		return nil, err
	}
	q, err := CompileRecordID(s, recordID)
	if err != nil {
		return nil, err
	}
	return c.doQuery(ctx, dbID, &request{AppToken: c.creds.AppToken, Query: &q})
}

// GetRecords runs the conjunction cs against dbID and returns every column.
// Conditions are checked before anything is sent. Labels are resolved
// against a schema fetched for this call unless a SchemaCache is installed.
func (c *Client) GetRecords(ctx context.Context, dbID string, cs Conditions) (*QueryResult, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dbID = c.dbOrActive(dbID)
	s, err := c.fetchSchema(ctx, dbID)
	if err != nil {
		return nil, err
	}
	q, err := Compile(cs, s)
	if err != nil {
		return nil, err
	}
	return c.doQuery(ctx, dbID, &request{AppToken: c.creds.AppToken, Query: &q, CList: allColumns})
}

// GetAllRecords returns every record of dbID with every column.
func (c *Client) GetAllRecords(ctx context.Context, dbID string) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := ""
	return c.doQuery(ctx, c.dbOrActive(dbID), &request{AppToken: c.creds.AppToken, Query: &q, CList: allColumns})
}

// GetChangedRecords returns the records flagged as new or changed. With
// clearFlags the flags are cleared afterwards; a failure there is logged and
// does not affect the returned result.
func (c *Client) GetChangedRecords(ctx context.Context, dbID string, clearFlags bool) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbID = c.dbOrActive(dbID)
	res, err := c.doQuery(ctx, dbID, &request{AppToken: c.creds.AppToken, Options: changedOptions})
	if err != nil {
		return nil, err
	}
	if clearFlags {
		if err := c.transport.ClearFlags(ctx, dbID); err != nil {
			c.log.Warn("quickbase clear flags failed", zap.String("dbid", dbID), zap.Error(err))
		}
	}
	return res, nil
}

// ClearFlags clears the new/changed flags of dbID and reports transport
// failures. GetChangedRecords uses the lenient form.
func (c *Client) ClearFlags(ctx context.Context, dbID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbID = c.dbOrActive(dbID)
	if err := c.transport.ClearFlags(ctx, dbID); err != nil {
		return fmt.Errorf("clear flags for %s: %w", dbID, err)
	}
	return nil
}

func (c *Client) doQuery(ctx context.Context, dbID string, req *request) (*QueryResult, error) {
	raw, err := c.call(ctx, dbID, ActionDoQuery, req)
	if err != nil {
		return nil, err
	}
	res, err := parseQueryResult(raw)
	if err != nil {
		return nil, err
	}
	c.log.Debug("quickbase query",
		zap.String("dbid", dbID),
		zap.Int("records", len(res.Records)),
	)
	return res, nil
}
