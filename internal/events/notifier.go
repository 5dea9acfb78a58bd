package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "mngkeeper/pkg/domain-errors"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mngkeeper_events_published_total",
		Help: "Domain events published, by type and confirmation outcome",
	}, []string{"type", "confirmed"})
	eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mngkeeper_events_failed_total",
		Help: "Domain events that could not be handed to the broker, by type",
	}, []string{"type"})
)

// Broker is the publishing side of the message broker. Publish returns
// whether the broker confirmed the message within its confirmation window.
type Broker interface {
	Publish(ctx context.Context, routingKey string, body []byte) (confirmed bool, err error)
}

// Notifier publishes domain events at-least-once. A missing confirmation is
// logged, not surfaced: the write that produced the event has already
// committed, so the caller must not be failed retroactively.
type Notifier struct {
	broker Broker
	logger *slog.Logger
}

// NotifierOption configures the Notifier.
type NotifierOption func(*Notifier)

// WithNotifierLogger sets the logger.
func WithNotifierLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = logger }
}

// NewNotifier creates a Notifier over the given broker.
func NewNotifier(broker Broker, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		broker: broker,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Publish serializes the event and hands it to the broker under the event's
// routing key. It returns an error only when the broker rejects the message
// outright; an unconfirmed publish is logged and counted but not an error.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		eventsFailed.WithLabelValues(string(event.Type)).Inc()
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal event")
	}

	confirmed, err := n.broker.Publish(ctx, event.RoutingKey(), body)
	if err != nil {
		eventsFailed.WithLabelValues(string(event.Type)).Inc()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "publish event")
	}

	if confirmed {
		eventsPublished.WithLabelValues(string(event.Type), "true").Inc()
		n.logger.Debug("event published",
			"event_id", event.ID,
			"type", event.Type,
			"routing_key", event.RoutingKey(),
		)
		return nil
	}

	eventsPublished.WithLabelValues(string(event.Type), "false").Inc()
	n.logger.Warn("event publish not confirmed by broker",
		"event_id", event.ID,
		"type", event.Type,
		"routing_key", event.RoutingKey(),
	)
	return nil
}

// Notify publishes without blocking the caller on the broker round trip and
// without propagating failures. Services call it after a successful write.
func (n *Notifier) Notify(event Event) {
	go func() {
		if err := n.Publish(context.Background(), event); err != nil {
			n.logger.Error("event publish failed",
				"event_id", event.ID,
				"type", event.Type,
				"error", err,
			)
		}
	}()
}
