// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ResolveApplication looks up the dbid of an application by name without
// changing the active application.
func (c *Client) ResolveApplication(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveApplication(ctx, name)
}

func (c *Client) resolveApplication(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", newError(InvalidArgument, "an application name is required")
	}
	raw, err := c.call(ctx, mainDB, ActionFindDBByName, &request{DBName: name})
	if err != nil {
		var qe *Error
		if errors.As(err, &qe) && qe.Kind == Remote {
			return "", &Error{Kind: Resolution, Message: fmt.Sprintf("application %q: %s", name, qe.Message), Code: qe.Code}
		}
		return "", err
	}
	var out findDBResponse
	if err := decodeXML(raw, &out); err != nil {
		return "", err
	}
	dbid := strings.TrimSpace(out.DBID)
	if dbid == "" {
		return "", newError(Resolution, fmt.Sprintf("application %q not found", name))
	}
	return dbid, nil
}

// SetApplication makes name the active application and rebuilds the table map.
func (c *Client) SetApplication(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setApplication(ctx, name)
}

func (c *Client) setApplication(ctx context.Context, name string) error {
	dbid, err := c.resolveApplication(ctx, name)
	if err != nil {
		return err
	}
	s, err := c.fetchSchema(ctx, dbid)
	if err != nil {
		return err
	}
	c.appName = name
	c.appSchema = s
	c.db = DatabaseHandle{AppDBID: dbid, Tables: MapChildTables(s)}
	c.log.Debug("quickbase application mapped",
		zap.String("application", name),
		zap.String("dbid", dbid),
		zap.Int("tables", len(c.db.Tables)),
	)
	return nil
}

// RefreshDatabase fetches the active application's schema again and rebuilds
// the table map.
func (c *Client) RefreshDatabase(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, c.db.AppDBID); err != nil {
			c.log.Warn("quickbase schema cache invalidate failed", zap.Error(err))
		}
	}
	s, err := c.fetchSchema(ctx, c.db.AppDBID)
	if err != nil {
		return err
	}
	c.appSchema = s
	c.db.Tables = MapChildTables(s)
	return nil
}

// recordIDSchema returns the schema GetRecord needs to find the record id
// field. That field cannot change, so the application schema read at
// construction is reused; any other dbid goes through fetchSchema.
func (c *Client) recordIDSchema(ctx context.Context, dbID string) (*Schema, error) {
	dbID = c.dbOrActive(dbID)
	if c.cache == nil && dbID == c.db.AppDBID && c.appSchema != nil {
		return c.appSchema, nil
	}
	return c.fetchSchema(ctx, dbID)
}

// Database returns a copy of the active database handle.
func (c *Client) Database() DatabaseHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DatabaseHandle{AppDBID: c.db.AppDBID, Tables: maps.Clone(c.db.Tables)}
}

// Application returns the active application name.
func (c *Client) Application() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appName
}

// TableID returns the dbid of a child table by its case-sensitive name.
func (c *Client) TableID(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.db.Tables[name]
	if !ok {
		return "", newError(Resolution, fmt.Sprintf("table %q not found in application %q", name, c.appName))
	}
	return id, nil
}

// TableNames returns the child table names, sorted.
func (c *Client) TableNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.db.Tables))
	for name := range c.db.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema fetches the schema of dbID, or of the active application when dbID
// is empty.
func (c *Client) Schema(ctx context.Context, dbID string) (*Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchSchema(ctx, dbID)
}

// InvalidateSchema drops a cached schema. It is a no-op without a cache.
func (c *Client) InvalidateSchema(ctx context.Context, dbID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, c.dbOrActive(dbID))
}

func (c *Client) fetchSchema(ctx context.Context, dbID string) (*Schema, error) {
	dbID = c.dbOrActive(dbID)
	if c.cache != nil {
		s, ok, err := c.cache.Get(ctx, dbID)
		if err != nil {
			c.log.Warn("quickbase schema cache read failed", zap.String("dbid", dbID), zap.Error(err))
		} else if ok {
			return s, nil
		}
	}

	raw, err := c.call(ctx, dbID, ActionGetSchema, &request{AppToken: c.creds.AppToken})
	if err != nil {
		return nil, err
	}
	s, err := ParseSchema(raw)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, dbID, s); err != nil {
			c.log.Warn("quickbase schema cache write failed", zap.String("dbid", dbID), zap.Error(err))
		}
	}
	return s, nil
}

// dbOrActive substitutes the application dbid for an empty argument.
func (c *Client) dbOrActive(dbID string) string {
	if dbID == "" {
		return c.db.AppDBID
	}
	return dbID
}
