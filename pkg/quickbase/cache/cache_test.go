// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfast/qbase/pkg/quickbase"
)

const schemaDoc = `<qdbapi><errcode>0</errcode><table><name>Tasks</name>
<chdbids><chdbid name="_dbid_tasks">bq1</chdbid></chdbids>
<fields><field id="3" field_type="recordid"><label>Record ID#</label></field></fields>
</table></qdbapi>`

func parsed(t *testing.T) *quickbase.Schema {
	t.Helper()
	s, err := quickbase.ParseSchema([]byte(schemaDoc))
	require.NoError(t, err)
	return s
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	_, ok, err := m.Get(ctx, "bq1")
	require.NoError(t, err)
	assert.False(t, ok)

	s := parsed(t)
	require.NoError(t, m.Set(ctx, "bq1", s))
	got, ok, err := m.Get(ctx, "bq1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, s, got)

	now = now.Add(59 * time.Second)
	_, ok, _ = m.Get(ctx, "bq1")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "bq1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Set(ctx, "bq1", s))
	require.NoError(t, m.Invalidate(ctx, "bq1"))
	_, ok, _ = m.Get(ctx, "bq1")
	assert.False(t, ok)
}

func TestMemoryDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewMemory(0).ttl)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("QBASE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QBASE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedis(client, "qbase-test:"+uuid.NewString()+":", time.Minute)
	_, ok, err := r.Get(ctx, "bq1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "bq1", parsed(t)))
	got, ok, err := r.Get(ctx, "bq1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tasks", got.Name)
	assert.Equal(t, map[string]string{"tasks": "bq1"}, quickbase.MapChildTables(got))

	require.NoError(t, r.Invalidate(ctx, "bq1"))
	_, ok, err = r.Get(ctx, "bq1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, r.Set(ctx, "bq2", &quickbase.Schema{}))
}

func TestRedisKey(t *testing.T) {
	r := NewRedis(nil, "", 0)
	assert.Equal(t, "qbase:schema:bq1", r.key("bq1"))
	assert.Equal(t, DefaultTTL, r.ttl)
}
