// README: Outbox relay: ships committed order state events to Kafka and marks them published.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Config struct {
	Topic     string
	Interval  time.Duration
	BatchSize int
}

// Message is the JSON value written for each event. The record key is the order id.
type Message struct {
	EventID    int64              `json:"event_id"`
	OrderID    types.ID           `json:"order_id"`
	FromStatus models.OrderStatus `json:"from_status"`
	ToStatus   models.OrderStatus `json:"to_status"`
	ActorType  string             `json:"actor_type"`
	ActorID    *types.ID          `json:"actor_id,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Relay delivers events at least once: a crash between publish and mark
// republishes the batch on the next poll.
type Relay struct {
	store storage.Store
	pub   Publisher
	cfg   Config
	clock types.Clock
	log   *logrus.Entry
}

func NewRelay(store storage.Store, pub Publisher, cfg Config, clock types.Clock, log *logrus.Entry) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Relay{store: store, pub: pub, cfg: cfg, clock: clock, log: log.WithField("component", "outbox")}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.log.WithError(err).WithField("published", n).Warn("outbox relay interrupted")
				continue
			}
			if n > 0 {
				r.log.WithField("published", n).Debug("outbox relayed")
			}
		}
	}
}

// RelayOnce publishes one batch in id order. It stops at the first publish
// failure and still marks everything sent before it.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var events []*models.OrderEvent
	err := r.store.View(ctx, func(tx storage.Tx) error {
		var err error
		events, err = tx.ListUnpublishedEvents(ctx, r.cfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list unpublished events: %w", err)
	}

	sent := make([]int64, 0, len(events))
	var pubErr error
	for _, e := range events {
		value, err := json.Marshal(toMessage(e))
		if err != nil {
			pubErr = fmt.Errorf("encode event %d: %w", e.ID, err)
			break
		}
		if err := r.pub.Publish(ctx, r.cfg.Topic, []byte(e.OrderID), value); err != nil {
			pubErr = fmt.Errorf("publish event %d: %w", e.ID, err)
			break
		}
		sent = append(sent, e.ID)
	}

	if len(sent) > 0 {
		now := r.clock.Now()
		if err := r.store.Atomic(ctx, func(tx storage.Tx) error {
			return tx.MarkEventsPublished(ctx, sent, now)
		}); err != nil {
			return 0, fmt.Errorf("mark events published: %w", err)
		}
	}
	return len(sent), pubErr
}

func toMessage(e *models.OrderEvent) Message {
	return Message{
		EventID:    e.ID,
		OrderID:    e.OrderID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorType:  e.ActorType,
		ActorID:    e.ActorID,
		OccurredAt: e.CreatedAt,
	}
}
