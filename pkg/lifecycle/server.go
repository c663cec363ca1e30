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

// Package lifecycle runs a long-lived service with signal handling, a gRPC
// health endpoint and graceful shutdown.
package lifecycle

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultHealthInterval  = 5 * time.Second
)

var (
	errServiceRequired = errors.New("lifecycle: service is required")
	errAppendCA        = errors.New("lifecycle: unable to append CA certificate")
)

// Service is a component with a blocking Start and a graceful Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HealthReporter is implemented by services that can tell whether they are
// ready to serve reads.
type HealthReporter interface {
	Healthy() bool
}

// ServiceOptions configures RunService.
type ServiceOptions struct {
	ServiceName     string
	Service         Service
	ListenAddr      string
	Listener        net.Listener
	Security        *models.SecurityConfig
	ShutdownTimeout time.Duration
	HealthInterval  time.Duration
	Logger          logger.Logger
}

// RunService starts opts.Service and blocks until the context is cancelled,
// SIGINT/SIGTERM arrives or Start returns. When ListenAddr or Listener is
// set a gRPC health service reports the service status.
func RunService(ctx context.Context, opts *ServiceOptions) error {
	if opts == nil || opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer, healthServer, err := startHealthServer(opts, log)
	if err != nil {
		return err
	}

	startErr := make(chan error, 1)

	go func() {
		startErr <- opts.Service.Start(ctx)
	}()

	if healthServer != nil {
		go watchHealth(ctx, opts, healthServer)
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown requested")
	case runErr = <-startErr:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error().Err(runErr).Str("service", opts.ServiceName).Msg("Service exited with error")
		} else {
			runErr = nil
		}
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if healthServer != nil {
		healthServer.Shutdown()
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	if err := opts.Service.Stop(stopCtx); err != nil {
		log.Error().Err(err).Str("service", opts.ServiceName).Msg("Service stop failed")

		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}

func startHealthServer(opts *ServiceOptions, log logger.Logger) (*grpc.Server, *health.Server, error) {
	lis := opts.Listener

	if lis == nil {
		if opts.ListenAddr == "" {
			return nil, nil, nil
		}

		var err error

		lis, err = net.Listen("tcp", opts.ListenAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("lifecycle: listen on %s: %w", opts.ListenAddr, err)
		}
	}

	var serverOpts []grpc.ServerOption

	if opts.Security != nil && opts.Security.Mode == models.SecurityModeMTLS {
		tlsConfig, err := serverTLSConfig(opts.Security)
		if err != nil {
			_ = lis.Close()
			return nil, nil, err
		}

		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}

	grpcServer := grpc.NewServer(serverOpts...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus(opts.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()

	log.Info().Str("addr", lis.Addr().String()).Str("service", opts.ServiceName).Msg("Health endpoint listening")

	return grpcServer, healthServer, nil
}

func watchHealth(ctx context.Context, opts *ServiceOptions, healthServer *health.Server) {
	interval := opts.HealthInterval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		healthServer.SetServingStatus(opts.ServiceName, servingStatus(opts.Service))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func servingStatus(svc Service) healthpb.HealthCheckResponse_ServingStatus {
	reporter, ok := svc.(HealthReporter)
	if !ok || reporter.Healthy() {
		return healthpb.HealthCheckResponse_SERVING
	}

	return healthpb.HealthCheckResponse_NOT_SERVING
}

func serverTLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) || sec.CertDir == "" {
			return path
		}

		return filepath.Join(sec.CertDir, path)
	}

	cert, err := tls.LoadX509KeyPair(resolve(sec.TLS.CertFile), resolve(sec.TLS.KeyFile))
	if err != nil {
		return nil, fmt.Errorf("lifecycle: load server keypair: %w", err)
	}

	caFile := sec.TLS.ClientCAFile
	if caFile == "" {
		caFile = sec.TLS.CAFile
	}

	caBytes, err := os.ReadFile(resolve(caFile))
	if err != nil {
		return nil, fmt.Errorf("lifecycle: read client CA: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, errAppendCA
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}, nil
}
