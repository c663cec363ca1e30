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

package cpe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/cpesync/pkg/models"
)

const (
	engineMeterName = "cpesync.engine"

	metricRebuildCyclesName   = "cpe_rebuild_cycles_total"
	metricRebuildDurationName = "cpe_rebuild_duration_seconds"
	metricSnapshotDevicesName = "cpe_snapshot_devices"
	metricResetEventsName     = "cpe_reset_events_created_total"
	metricBackupFailuresName  = "cpe_backup_write_failures_total"

	cycleResultSuccess = "success"
	cycleResultFailure = "failure"
)

// snapshotCounts holds the latest per-status device counts for the gauge.
type snapshotCounts struct {
	online  atomic.Int64
	alert   atomic.Int64
	offline atomic.Int64
}

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	engineMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	engineSnapshotCounts = &snapshotCounts{}
	//nolint:gochecknoglobals // metric instruments are shared singletons
	engineInstruments struct {
		cycles         metric.Int64Counter
		duration       metric.Float64Histogram
		devices        metric.Int64ObservableGauge
		resetEvents    metric.Int64Counter
		backupFailures metric.Int64Counter
	}
	engineMetricsRegistration metric.Registration //nolint:unused,gochecknoglobals // kept to retain callback
)

func initEngineMetrics() {
	meter := otel.Meter(engineMeterName)

	var err error

	if engineInstruments.cycles, err = meter.Int64Counter(
		metricRebuildCyclesName,
		metric.WithDescription("Rebuild cycles by result"),
	); err != nil {
		otel.Handle(err)
	}

	if engineInstruments.duration, err = meter.Float64Histogram(
		metricRebuildDurationName,
		metric.WithDescription("Wall time of one rebuild cycle"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}

	if engineInstruments.resetEvents, err = meter.Int64Counter(
		metricResetEventsName,
		metric.WithDescription("Reset events created by the detector"),
	); err != nil {
		otel.Handle(err)
	}

	if engineInstruments.backupFailures, err = meter.Int64Counter(
		metricBackupFailuresName,
		metric.WithDescription("Devices whose backup or reset write failed"),
	); err != nil {
		otel.Handle(err)
	}

	engineInstruments.devices, err = meter.Int64ObservableGauge(
		metricSnapshotDevicesName,
		metric.WithDescription("Devices in the published snapshot by status"),
	)
	if err != nil {
		otel.Handle(err)
		return
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(engineInstruments.devices, engineSnapshotCounts.online.Load(),
			metric.WithAttributes(attribute.String("status", string(models.DeviceStatusOnline))))
		observer.ObserveInt64(engineInstruments.devices, engineSnapshotCounts.alert.Load(),
			metric.WithAttributes(attribute.String("status", string(models.DeviceStatusAlert))))
		observer.ObserveInt64(engineInstruments.devices, engineSnapshotCounts.offline.Load(),
			metric.WithAttributes(attribute.String("status", string(models.DeviceStatusOffline))))

		return nil
	}, engineInstruments.devices)
	if err != nil {
		otel.Handle(err)
		return
	}

	engineMetricsRegistration = registration
}

func recordCycle(ctx context.Context, result string, took time.Duration) {
	engineMetricsOnce.Do(initEngineMetrics)

	attrs := metric.WithAttributes(attribute.String("result", result))

	if engineInstruments.cycles != nil {
		engineInstruments.cycles.Add(ctx, 1, attrs)
	}

	if engineInstruments.duration != nil {
		engineInstruments.duration.Record(ctx, took.Seconds(), attrs)
	}
}

func recordSnapshot(summary *models.SnapshotSummary) {
	engineMetricsOnce.Do(initEngineMetrics)

	engineSnapshotCounts.online.Store(int64(summary.ByStatus[string(models.DeviceStatusOnline)]))
	engineSnapshotCounts.alert.Store(int64(summary.ByStatus[string(models.DeviceStatusAlert)]))
	engineSnapshotCounts.offline.Store(int64(summary.ByStatus[string(models.DeviceStatusOffline)]))
}

func recordResetOutcome(ctx context.Context, outcome *ResetOutcome) {
	engineMetricsOnce.Do(initEngineMetrics)

	if n := len(outcome.Created); n > 0 && engineInstruments.resetEvents != nil {
		engineInstruments.resetEvents.Add(ctx, int64(n))
	}

	if outcome.Failures > 0 && engineInstruments.backupFailures != nil {
		engineInstruments.backupFailures.Add(ctx, int64(outcome.Failures))
	}
}
