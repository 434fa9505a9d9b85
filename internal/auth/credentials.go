// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth resolves QuickBase credentials for the CLI.
//
// Each secret is read from its environment variable first and from the OS
// keychain second, so CI jobs can run without a keychain while interactive
// users log in once with `qbase login`.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"seedfast/qbase/internal/keychain"
	"seedfast/qbase/pkg/quickbase"
)

// Environment variables holding secrets.
const (
	EnvUsername  = "QBASE_USERNAME"
	EnvPassword  = "QBASE_PASSWORD"
	EnvAppToken  = "QBASE_APPTOKEN"
	EnvMirrorDSN = "QBASE_MIRROR_DSN"
	EnvDatabase  = "DATABASE_URL"
)

// SecretStore is the subset of keychain.Manager used here.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Source tells where a credential came from.
type Source string

const (
	SourceEnv      Source = "environment"
	SourceKeychain Source = "keychain"
	SourceMixed    Source = "environment+keychain"
	SourceNone     Source = "none"
)

// ErrNotLoggedIn is returned when no credentials can be found.
var ErrNotLoggedIn = errors.New("not logged in: run 'qbase login' or set QBASE_USERNAME, QBASE_PASSWORD and QBASE_APPTOKEN")

// Resolver reads credentials from the environment and a secret store. Store
// may be nil when no keychain is available.
type Resolver struct {
	Lookup func(string) (string, bool)
	Store  SecretStore
}

func (r Resolver) env(key string) string {
	if r.Lookup == nil {
		return ""
	}
	v, _ := r.Lookup(key)
	return strings.TrimSpace(v)
}

func (r Resolver) stored(key string) (string, error) {
	if r.Store == nil {
		return "", nil
	}
	v, err := r.Store.Get(key)
	if errors.Is(err, keychain.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (r Resolver) lookup(envKey, storeKey string) (string, Source, error) {
	if v := r.env(envKey); v != "" {
		return v, SourceEnv, nil
	}
	v, err := r.stored(storeKey)
	if err != nil {
		return "", SourceNone, fmt.Errorf("read %s from keychain: %w", storeKey, err)
	}
	if v == "" {
		return "", SourceNone, nil
	}
	return v, SourceKeychain, nil
}

// Credentials resolves username, password and app token. Any missing value
// yields ErrNotLoggedIn.
func (r Resolver) Credentials() (quickbase.Credentials, Source, error) {
	var (
		creds   quickbase.Credentials
		sources = map[Source]bool{}
	)
	fields := []struct {
		env, key string
		dst      *string
	}{
		{EnvUsername, keychain.KeyUsername, &creds.Username},
		{EnvPassword, keychain.KeyPassword, &creds.Password},
		{EnvAppToken, keychain.KeyAppToken, &creds.AppToken},
	}
	for _, f := range fields {
		v, src, err := r.lookup(f.env, f.key)
		if err != nil {
			return quickbase.Credentials{}, SourceNone, err
		}
		if v == "" {
			return quickbase.Credentials{}, SourceNone, ErrNotLoggedIn
		}
		*f.dst = v
		sources[src] = true
	}
	switch {
	case sources[SourceEnv] && sources[SourceKeychain]:
		return creds, SourceMixed, nil
	case sources[SourceEnv]:
		return creds, SourceEnv, nil
	default:
		return creds, SourceKeychain, nil
	}
}

// MirrorDSN resolves the Postgres DSN for the record mirror.
func (r Resolver) MirrorDSN() (string, Source, error) {
	if v := r.env(EnvMirrorDSN); v != "" {
		return v, SourceEnv, nil
	}
	if v := r.env(EnvDatabase); v != "" {
		return v, SourceEnv, nil
	}
	v, src, err := r.lookup("", keychain.KeyMirrorDSN)
	if err != nil {
		return "", SourceNone, err
	}
	if v == "" {
		return "", SourceNone, errors.New("no mirror database: run 'qbase connect' or set QBASE_MIRROR_DSN")
	}
	return v, src, nil
}

// SaveCredentials writes creds to the store.
func SaveCredentials(store SecretStore, creds quickbase.Credentials) error {
	for key, v := range map[string]string{
		keychain.KeyUsername: creds.Username,
		keychain.KeyPassword: creds.Password,
		keychain.KeyAppToken: creds.AppToken,
	} {
		if err := store.Set(key, v); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// ClearCredentials removes stored login secrets. The mirror DSN is kept.
func ClearCredentials(store SecretStore) error {
	var errs []error
	for _, key := range []string{keychain.KeyUsername, keychain.KeyPassword, keychain.KeyAppToken} {
		errs = append(errs, store.Remove(key))
	}
	return errors.Join(errs...)
}
