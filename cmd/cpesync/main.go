/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/carverauto/cpesync/pkg/config"
	"github.com/carverauto/cpesync/pkg/cpe"
	"github.com/carverauto/cpesync/pkg/db"
	"github.com/carverauto/cpesync/pkg/genieacs"
	"github.com/carverauto/cpesync/pkg/lifecycle"
	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/natsutil"
)

const serviceName = "cpesync"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("cpesync: %v", err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "/etc/cpesync/cpesync.json", "Path to config file (.json, .jsonc, .yaml)")
	logLevel := flags.String("log-level", "", "Override the configured log level")
	once := flags.Bool("once", false, "Run a single rebuild cycle, print its summary and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return err
	}

	ctx := context.Background()

	var cfg Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	if *logLevel != "" {
		logCfg.Level = *logLevel
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("cpesync: failed to shut down logger: %v", err)
		}
	}()

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: serviceName,
		OTel:        &logCfg.OTel,
	}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		mainLogger.Warn().Err(err).Msg("OTLP metrics export unavailable")
	}

	store, err := openStore(ctx, &cfg, mainLogger)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close() }()

	source, err := genieacs.NewClient(cfg.GenieACS, mainLogger)
	if err != nil {
		return fmt.Errorf("failed to create GenieACS client: %w", err)
	}

	var opts []cpe.Option

	if cfg.NATSURL != "" {
		nc, err := natsutil.ConnectWithSecurity(cfg.NATSURL, cfg.Security, mainLogger)
		if err != nil {
			return err
		}

		defer nc.Close()

		publisher, err := natsutil.CreateEventPublisher(ctx, nc, cfg.NATSDomain, cfg.StreamName, mainLogger)
		if err != nil {
			return err
		}

		opts = append(opts, cpe.WithEventPublisher(publisher))
	}

	engine, err := cpe.NewEngine(cfg.Engine, source, store, mainLogger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if *once {
		return runOnce(ctx, engine, os.Stdout)
	}

	return lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		ServiceName: serviceName,
		Service:     engine,
		ListenAddr:  cfg.ListenAddr,
		Security:    cfg.Security,
		Logger:      mainLogger,
	})
}

func openStore(ctx context.Context, cfg *Config, log logger.Logger) (db.Store, error) {
	if cfg.CNPG != nil {
		store, err := db.NewCNPGStore(ctx, cfg.CNPG, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open CNPG store: %w", err)
		}

		return store, nil
	}

	store, err := db.NewSQLiteStore(ctx, cfg.SQLitePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite store %s: %w", cfg.SQLitePath, err)
	}

	return store, nil
}

// rebuilder is the part of the engine --once needs.
type rebuilder interface {
	TriggerRebuild(ctx context.Context) (*cpe.Snapshot, error)
}

func runOnce(ctx context.Context, r rebuilder, out io.Writer) error {
	start := time.Now()

	snap, err := r.TriggerRebuild(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(snap.Summary(time.Since(start)))
}
