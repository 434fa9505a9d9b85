// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"seedfast/qbase/internal/auth"
	"seedfast/qbase/internal/config"
	"seedfast/qbase/internal/keychain"
	"seedfast/qbase/pkg/quickbase"
	"seedfast/qbase/pkg/quickbase/cache"

	"go.uber.org/zap"
)

// secretStore opens the OS keychain. Tests swap it for an in-memory ring.
var secretStore = func() (auth.SecretStore, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return nil, err
	}
	return km, nil
}

// resolver reads secrets from the environment and, when available, the OS
// keychain.
func resolver() auth.Resolver {
	r := auth.Resolver{Lookup: os.LookupEnv}
	if store, err := secretStore(); err == nil {
		r.Store = store
	} else {
		logger.Debug("keychain unavailable", zap.Error(err))
	}
	return r
}

func clientConfig(creds quickbase.Credentials) quickbase.Config {
	return quickbase.Config{
		Host:            settings.Host,
		Username:        creds.Username,
		Password:        creds.Password,
		AppToken:        creds.AppToken,
		Application:     settings.Application,
		TicketTTL:       settings.TicketTTL,
		ReauthThreshold: settings.ReauthThreshold,
	}
}

func clientOptions(ctx context.Context) ([]quickbase.Option, error) {
	opts := []quickbase.Option{
		quickbase.WithLogger(logger.Named("quickbase")),
		quickbase.WithHTTPClient(&http.Client{Timeout: settings.Timeout}),
	}
	sc, err := schemaCache(ctx)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		opts = append(opts, quickbase.WithSchemaCache(sc))
	}
	return opts, nil
}

func schemaCache(ctx context.Context) (quickbase.SchemaCache, error) {
	c := settings.Cache
	switch c.Backend {
	case config.CacheMemory:
		return cache.NewMemory(c.TTL), nil
	case config.CacheRedis:
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{Addr: c.RedisAddr, DB: c.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("schema cache: %w", err)
		}
		return cache.NewRedis(rdb, c.Prefix, c.TTL), nil
	default:
		return nil, nil
	}
}

// newClient builds an authenticated client for the configured application.
func newClient(ctx context.Context) (*quickbase.Client, error) {
	creds, src, err := resolver().Credentials()
	if err != nil {
		return nil, err
	}
	if settings.Application == "" {
		return nil, errors.New("no application configured: run 'qbase login' or set " + config.EnvApp)
	}
	logger.Debug("using credentials", zap.String("source", string(src)), zap.String("user", creds.Username))

	opts, err := clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	var c *quickbase.Client
	err = withSpinner("Connecting to "+settings.Application, func() error {
		var err error
		c, err = quickbase.New(ctx, clientConfig(creds), opts...)
		return err
	})
	return c, err
}

// tableDBID maps a table name to its dbid. The application's own name maps
// to the application dbid.
func tableDBID(c *quickbase.Client, name string) (string, error) {
	if name == "" || name == c.Application() {
		return c.Database().AppDBID, nil
	}
	return c.TableID(name)
}
