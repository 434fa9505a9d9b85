// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfast/qbase/internal/keychain"
	"seedfast/qbase/pkg/quickbase"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func newStore() *keychain.Manager {
	return keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

func TestCredentialsFromEnv(t *testing.T) {
	r := Resolver{Lookup: envMap(map[string]string{
		EnvUsername: "jdoe",
		EnvPassword: "pw",
		EnvAppToken: " tok ",
	})}
	creds, src, err := r.Credentials()
	require.NoError(t, err)
	assert.Equal(t, quickbase.Credentials{Username: "jdoe", Password: "pw", AppToken: "tok"}, creds)
	assert.Equal(t, SourceEnv, src)
}

func TestCredentialsFromKeychain(t *testing.T) {
	store := newStore()
	require.NoError(t, SaveCredentials(store, quickbase.Credentials{Username: "jdoe", Password: "pw", AppToken: "tok"}))

	creds, src, err := Resolver{Lookup: envMap(nil), Store: store}.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "pw", creds.Password)
	assert.Equal(t, SourceKeychain, src)

	creds, src, err = Resolver{Lookup: envMap(map[string]string{EnvPassword: "override"}), Store: store}.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "override", creds.Password)
	assert.Equal(t, SourceMixed, src)
}

func TestCredentialsMissing(t *testing.T) {
	_, _, err := Resolver{Lookup: envMap(map[string]string{EnvUsername: "jdoe"})}.Credentials()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	store := newStore()
	require.NoError(t, SaveCredentials(store, quickbase.Credentials{Username: "jdoe", Password: "pw", AppToken: "tok"}))
	require.NoError(t, ClearCredentials(store))
	_, _, err = Resolver{Store: store}.Credentials()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

type brokenStore struct{}

func (brokenStore) Get(string) (string, error) { return "", errors.New("dbus unavailable") }
func (brokenStore) Set(string, string) error   { return errors.New("dbus unavailable") }
func (brokenStore) Remove(string) error        { return nil }

func TestCredentialsStoreError(t *testing.T) {
	_, _, err := Resolver{Store: brokenStore{}}.Credentials()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotLoggedIn)
	assert.Contains(t, err.Error(), "dbus unavailable")
}

func TestMirrorDSN(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Set(keychain.KeyMirrorDSN, "postgres://k@localhost/db"))

	dsn, src, err := Resolver{Lookup: envMap(map[string]string{EnvDatabase: "postgres://d@localhost/db"}), Store: store}.MirrorDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://d@localhost/db", dsn)
	assert.Equal(t, SourceEnv, src)

	dsn, src, err = Resolver{Lookup: envMap(map[string]string{
		EnvDatabase:  "postgres://d@localhost/db",
		EnvMirrorDSN: "postgres://m@localhost/db",
	})}.MirrorDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://m@localhost/db", dsn)

	dsn, src, err = Resolver{Store: store}.MirrorDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://k@localhost/db", dsn)
	assert.Equal(t, SourceKeychain, src)

	_, _, err = Resolver{Store: newStore()}.MirrorDSN()
	assert.Error(t, err)
}
