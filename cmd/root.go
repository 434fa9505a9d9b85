// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd implements the qbase command-line interface: logging in to a
// QuickBase realm, inspecting an application's tables and schemas, querying
// records and mirroring changed records into Postgres.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"seedfast/qbase/internal/config"
	"seedfast/qbase/internal/httperrors"
	"seedfast/qbase/internal/logging"
	"seedfast/qbase/pkg/quickbase"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showVersion bool
	configPath  string
	verbose     bool
	jsonOutput  bool

	// settings and logger are populated by PersistentPreRunE.
	settings = config.Default()
	logger   = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qbase",
	Short: "Command-line client for the QuickBase XML API",
	Long: `qbase talks to a QuickBase application through the XML API. It keeps your
credentials in the OS keychain, resolves the application's tables by name and
turns simple conditions like "Priority>=3" into QuickBase queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return err
		}
		settings = cfg

		l, err := logging.NewLogger(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("qbase %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	if quickbase.KindOf(err) == quickbase.TransportFailure && httperrors.Classify(err) != httperrors.Generic {
		_ = httperrors.FormatNetworkError(err, httperrors.ExtractHostFromURL(quickbase.BaseURLForHost(settings.Host)), "reaching QuickBase")
		return
	}
	logging.PresentClientError(err)
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/qbase/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}
