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

// Package natsutil publishes cpesync CloudEvents to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

const (
	// DefaultStreamName is the JetStream stream that carries cpesync events.
	DefaultStreamName = "CPESYNC_EVENTS"

	SubjectResetDetected     = "cpe.reset.detected"
	SubjectSnapshotPublished = "cpe.snapshot.published"

	EventTypeResetDetected     = "com.carverauto.cpesync.reset.detected"
	EventTypeSnapshotPublished = "com.carverauto.cpesync.snapshot.published"

	eventSource = "cpesync/engine"
)

// jsPublisher is the part of jetstream.JetStream the publisher uses.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js     jsPublisher
	stream string
	logger logger.Logger
	now    func() time.Time
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName string, log logger.Logger) *EventPublisher {
	return newEventPublisher(js, streamName, log)
}

func newEventPublisher(js jsPublisher, streamName string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
		logger: log,
		now:    time.Now,
	}
}

// PublishResetDetected announces a newly created reset event.
func (p *EventPublisher) PublishResetDetected(ctx context.Context, ev *models.ResetEvent) error {
	if ev == nil {
		return nil
	}

	now := p.now().UTC()

	data := models.ResetDetectedEventData{
		EventID:       ev.ID,
		Serial:        ev.Serial,
		ConnectionMAC: ev.ConnectionMAC,
		ResetAt:       ev.ResetAt,
		Timestamp:     now,
	}

	if ev.LinkedConfig != nil {
		data.PreviousUser = ev.LinkedConfig.PPPoEUsername
	}

	return p.publish(ctx, SubjectResetDetected, EventTypeResetDetected, ev.Serial, now, data)
}

// PublishSnapshot announces a completed rebuild cycle.
func (p *EventPublisher) PublishSnapshot(ctx context.Context, summary models.SnapshotSummary) error {
	return p.publish(ctx, SubjectSnapshotPublished, EventTypeSnapshotPublished, "", summary.BuiltAt, summary)
}

func (p *EventPublisher) publish(ctx context.Context, subject, eventType, eventSubject string, ts time.Time, data interface{}) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         eventSubject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// ConnectWithSecurity creates a NATS connection with security configuration.
func ConnectWithSecurity(natsURL string, security *models.SecurityConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	var opts []nats.Option

	if security != nil && security.Mode == models.SecurityModeMTLS {
		tlsConf, err := TLSConfig(security)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.Name("cpesync"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// CreateEventPublisher ensures the stream exists and covers the cpesync
// subjects, then returns a publisher bound to it. domain may be empty.
func CreateEventPublisher(ctx context.Context, nc *nats.Conn, domain, streamName string, log logger.Logger) (*EventPublisher, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if streamName == "" {
		streamName = DefaultStreamName
	}

	var subjects []string

	stream, err := js.Stream(ctx, streamName)

	switch {
	case err == nil:
		subjects = append(subjects, stream.CachedInfo().Config.Subjects...)
	case !isStreamMissingErr(err):
		return nil, fmt.Errorf("failed to look up stream %s: %w", streamName, err)
	}

	wanted := subjects
	for _, subject := range []string{SubjectResetDetected, SubjectSnapshotPublished} {
		wanted = ensureSubjectList(wanted, subject)
	}

	if stream == nil || len(wanted) != len(subjects) {
		cfg := jetstream.StreamConfig{Name: streamName, Subjects: wanted}
		if stream != nil {
			cfg = stream.CachedInfo().Config
			cfg.Subjects = wanted
		}

		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to create or update stream %s: %w", streamName, err)
		}

		log.Info().Str("stream", streamName).Strs("subjects", wanted).Msg("Configured NATS JetStream stream")
	}

	return NewEventPublisher(js, streamName, log), nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless an existing pattern covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, existing := range subjects {
		if matchesSubject(existing, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject applies NATS wildcard rules: "*" matches one token and a
// trailing ">" matches one or more.
func matchesSubject(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, pt := range pTokens {
		if pt == ">" {
			return i == len(pTokens)-1 && len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if pt != "*" && pt != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}
