package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
)

// ChangeEvent tells every instance which topics changed.
type ChangeEvent struct {
	Topics []string  `json:"topics"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// ChangePublisher publishes change events after successful mutations.
type ChangePublisher struct {
	nc      *nats.Conn
	subject string
	origin  string
	logger  *slog.Logger
}

// NewChangePublisher creates a publisher on subject. origin names this
// instance in the events.
func NewChangePublisher(nc *nats.Conn, subject, origin string) *ChangePublisher {
	return &ChangePublisher{
		nc:      nc,
		subject: subject,
		origin:  origin,
		logger:  slog.Default(),
	}
}

// Publish sends one event covering topics.
func (p *ChangePublisher) Publish(_ context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	data, err := json.Marshal(&ChangeEvent{
		Topics: topics,
		Origin: p.origin,
		At:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	p.logger.Debug("Published change event", "subject", p.subject, "topics", topics)
	return nil
}

// TopicNotifier receives the topics of change events.
type TopicNotifier interface {
	Notify(topic string)
}

// ChangeSubscriber forwards change events from the bus to a local hub.
// Every instance subscribes without a queue group so all of them see every
// change.
type ChangeSubscriber struct {
	nc           *nats.Conn
	subject      string
	target       TopicNotifier
	metrics      *metrics.Metrics
	logger       *slog.Logger
	subscription *nats.Subscription
}

// NewChangeSubscriber creates a subscriber on subject feeding target.
func NewChangeSubscriber(nc *nats.Conn, subject string, target TopicNotifier, m *metrics.Metrics) *ChangeSubscriber {
	return &ChangeSubscriber{
		nc:      nc,
		subject: subject,
		target:  target,
		metrics: m,
		logger:  slog.Default(),
	}
}

// Start subscribes.
func (s *ChangeSubscriber) Start() error {
	sub, err := s.nc.Subscribe(s.subject, s.handle)
	if err != nil {
		return err
	}
	s.subscription = sub
	s.logger.Info("Change subscriber started", "subject", s.subject)
	return nil
}

func (s *ChangeSubscriber) handle(msg *nats.Msg) {
	var event ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal change event", "error", err)
		return
	}
	s.metrics.ChangeReceived()
	for _, topic := range event.Topics {
		s.target.Notify(topic)
	}
}

// Stop unsubscribes.
func (s *ChangeSubscriber) Stop() {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", "error", err)
		}
	}
	s.logger.Info("Change subscriber stopped")
}
