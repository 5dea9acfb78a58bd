// Package audit records published domain events into a durable trail. The
// recorder consumes the broker feed, so the trail reflects what actually
// left the service rather than what the services intended to publish.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Entry is one audit-trail record, derived from a published event envelope.
type Entry struct {
	EventID       string          `json:"eventId" bson:"_id"`
	Type          string          `json:"type" bson:"type"`
	DomainID      string          `json:"domainId" bson:"domainId"`
	CorrelationID string          `json:"correlationId,omitempty" bson:"correlationId,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt" bson:"occurredAt"`
	RecordedAt    time.Time       `json:"recordedAt" bson:"recordedAt"`
	Payload       json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
}

// Store persists audit entries. Insert must tolerate redelivery of the same
// event without creating a second record.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
}

// Recorder turns broker deliveries into audit entries.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder builds a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle records one delivered event body. An error tells the broker to
// redeliver, so only transient failures should surface; a body that cannot
// be decoded is logged and dropped instead of poisoning the queue.
func (r *Recorder) Handle(ctx context.Context, body []byte) error {
	var envelope struct {
		ID            string          `json:"id"`
		Type          string          `json:"type"`
		DomainID      string          `json:"domainId"`
		Timestamp     time.Time       `json:"timestamp"`
		CorrelationID string          `json:"correlationId"`
		Payload       json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		r.logger.Error("discarding undecodable event", "error", err)
		return nil
	}
	if envelope.ID == "" {
		r.logger.Error("discarding event without id", "type", envelope.Type)
		return nil
	}

	entry := &Entry{
		EventID:       envelope.ID,
		Type:          envelope.Type,
		DomainID:      envelope.DomainID,
		CorrelationID: envelope.CorrelationID,
		OccurredAt:    envelope.Timestamp,
		RecordedAt:    r.now().UTC(),
		Payload:       envelope.Payload,
	}
	if err := r.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("record event %s: %w", envelope.ID, err)
	}

	r.logger.Debug("event recorded",
		"event_id", entry.EventID,
		"type", entry.Type,
		"domain_id", entry.DomainID,
	)
	return nil
}

// Queue is the durable queue the recorder consumes. The "#" binding captures
// every event type for every domain.
const (
	Queue      = "mngkeeper.audit"
	BindingKey = "#"
)
