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

package db

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PostgreSQL SQLSTATE codes for transient errors that should be retried.
const (
	sqlstateDeadlockDetected    = "40P01"
	sqlstateSerializationFailed = "40001"
	sqlstateStatementTimeout    = "57014"
	sqlstateAdminShutdown       = "57P01"
	sqlstateCannotConnectNow    = "57P03"
)

const (
	defaultCNPGMaxRetryAttempts  = 3
	defaultCNPGDeadlockBackoffMs = 500
	defaultCNPGBaseBackoffMs     = 150
	cnpgMaxRetryAttemptsEnv      = "CNPG_MAX_RETRY_ATTEMPTS"
	cnpgDeadlockBackoffMsEnv     = "CNPG_DEADLOCK_BACKOFF_MS"
)

//nolint:gochecknoglobals // instruments are registered once per process
var cnpgRetryCounter, _ = otel.Meter("cpesync.db").Int64Counter(
	"cpe_db_retries_total",
	metric.WithDescription("Transient CNPG errors that triggered a retry"),
)

// classifyCNPGError returns the SQLSTATE of err and whether it is worth retrying.
func classifyCNPGError(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateDeadlockDetected, sqlstateSerializationFailed,
			sqlstateStatementTimeout, sqlstateAdminShutdown, sqlstateCannotConnectNow:
			return pgErr.Code, true
		}

		return pgErr.Code, false
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "40p01"), strings.Contains(msg, "deadlock detected"):
		return sqlstateDeadlockDetected, true
	case strings.Contains(msg, "40001"), strings.Contains(msg, "could not serialize access"):
		return sqlstateSerializationFailed, true
	case strings.Contains(msg, "57014"), strings.Contains(msg, "statement timeout"):
		return sqlstateStatementTimeout, true
	default:
		return "", false
	}
}

// cnpgBackoffDelay is exponential in attempt with up to one base of jitter.
func cnpgBackoffDelay(attempt int, sqlstate string) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var base time.Duration

	switch sqlstate {
	case sqlstateDeadlockDetected, sqlstateSerializationFailed:
		base = time.Duration(getCNPGDeadlockBackoffMs()) * time.Millisecond
	default:
		base = time.Duration(defaultCNPGBaseBackoffMs) * time.Millisecond
	}

	backoff := base * time.Duration(1<<(attempt-1))
	jitter := time.Now().UnixNano() % int64(base)

	return backoff + time.Duration(jitter)
}

// withRetry runs fn until it succeeds, fails permanently, or attempts run out.
func (s *CNPGStore) withRetry(ctx context.Context, name string, fn func(context.Context) error) error {
	maxAttempts := getCNPGMaxRetryAttempts()

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		code, transient := classifyCNPGError(err)

		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if !transient || attempt == maxAttempts {
			s.logger.Error().
				Err(err).
				Str("sqlstate", code).
				Str("operation", name).
				Int("attempt", attempt).
				Msg("cnpg operation failed")

			return err
		}

		delay := cnpgBackoffDelay(attempt, code)

		if cnpgRetryCounter != nil {
			cnpgRetryCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", name),
				attribute.String("sqlstate", code),
			))
		}

		s.logger.Warn().
			Err(err).
			Str("sqlstate", code).
			Str("operation", name).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("backoff", delay).
			Msg("cnpg transient error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func getCNPGMaxRetryAttempts() int {
	return positiveEnvInt(cnpgMaxRetryAttemptsEnv, defaultCNPGMaxRetryAttempts)
}

func getCNPGDeadlockBackoffMs() int {
	return positiveEnvInt(cnpgDeadlockBackoffMsEnv, defaultCNPGDeadlockBackoffMs)
}

func positiveEnvInt(name string, def int) int {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}

	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}

	return parsed
}
