// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cache provides quickbase.SchemaCache implementations.
package cache

import (
	"context"
	"sync"
	"time"

	"seedfast/qbase/pkg/quickbase"
)

// DefaultTTL is used when a cache is created with a non-positive TTL.
const DefaultTTL = 10 * time.Minute

var _ quickbase.SchemaCache = (*Memory)(nil)

type memoryEntry struct {
	schema    *quickbase.Schema
	expiresAt time.Time
}

// Memory keeps schemas in process memory until their TTL elapses.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemory creates an in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, dbID string) (*quickbase.Schema, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[dbID]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[dbID]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, dbID)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.schema, true, nil
}

func (m *Memory) Set(_ context.Context, dbID string, s *quickbase.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[dbID] = memoryEntry{schema: s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, dbID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, dbID)
	return nil
}

// Len reports how many entries are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
