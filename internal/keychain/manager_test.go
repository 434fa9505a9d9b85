// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSetGetRemove(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))

	_, err := m.Get(KeyUsername)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(KeyUsername, "jdoe"))
	got, err := m.Get(KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got)

	require.NoError(t, m.Set(KeyUsername, ""))
	_, err = m.Get(KeyUsername)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, m.Remove("never-set"))
}

func TestManagerClear(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))
	for _, k := range []string{KeyUsername, KeyPassword, KeyAppToken, KeyMirrorDSN} {
		require.NoError(t, m.Set(k, "v-"+k))
	}

	require.NoError(t, m.ClearCredentials())
	_, err := m.Get(KeyPassword)
	assert.ErrorIs(t, err, ErrNotFound)
	dsn, err := m.Get(KeyMirrorDSN)
	require.NoError(t, err)
	assert.Equal(t, "v-"+KeyMirrorDSN, dsn)

	require.NoError(t, m.ClearAll())
	_, err = m.Get(KeyMirrorDSN)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllowedBackendsNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, allowedBackends())
	assert.NotContains(t, allowedBackends(), keyring.FileBackend)
}
