// Package kafka streams committed ledger entries to a Kafka topic so
// downstream consumers (dashboards, reconciliation jobs) can observe every
// stock change without polling the database.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"agapay/internal/ledger"
)

// Publisher buffers committed entries and produces them from a background
// worker. Publishing is best-effort: a full buffer or broker failure is
// logged and dropped, never propagated back into the engine's transaction.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan []ledger.Transaction
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
		inbox:  make(chan []ledger.Transaction, 256),
	}, nil
}

// EnsureTopic creates the stock-events topic if it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish hands committed entries to the background worker without blocking
// the caller.
func (p *Publisher) Publish(ctx context.Context, entries []ledger.Transaction) {
	if len(entries) == 0 {
		return
	}
	select {
	case p.inbox <- entries:
	default:
		p.logger.WarnContext(ctx, "stock event buffer full, dropping batch",
			"entries", len(entries),
		)
	}
}

// Run consumes batches from the inbox and produces them until ctx ends.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entries := <-p.inbox:
			p.produce(ctx, entries)
		}
	}
}

func (p *Publisher) produce(ctx context.Context, entries []ledger.Transaction) {
	records := make([]*kgo.Record, 0, len(entries))
	for _, entry := range entries {
		payload, err := json.Marshal(newStockEvent(entry))
		if err != nil {
			p.logger.ErrorContext(ctx, "marshal stock event", "error", err)
			continue
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(entry.ItemID.String()),
			Value: payload,
		})
	}
	if len(records) == 0 {
		return
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "produce stock events", "error", err,
			"records", len(records),
		)
	}
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

// stockEvent is the wire shape published per ledger entry.
type stockEvent struct {
	ID             string `json:"id"`
	ItemID         string `json:"item_id"`
	ActorID        string `json:"actor_id,omitempty"`
	Kind           string `json:"kind"`
	Delta          int    `json:"delta"`
	QuantityBefore int    `json:"quantity_before"`
	QuantityAfter  int    `json:"quantity_after"`
	ReferenceID    string `json:"reference_id,omitempty"`
	ReferenceKind  string `json:"reference_kind,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

func newStockEvent(entry ledger.Transaction) stockEvent {
	ev := stockEvent{
		ID:             entry.ID.String(),
		ItemID:         entry.ItemID.String(),
		Kind:           string(entry.Kind),
		Delta:          entry.Delta,
		QuantityBefore: entry.QuantityBefore,
		QuantityAfter:  entry.QuantityAfter,
		ReferenceKind:  entry.ReferenceKind,
		OccurredAt:     entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if entry.ActorID != nil {
		ev.ActorID = entry.ActorID.String()
	}
	if entry.ReferenceID != nil {
		ev.ReferenceID = entry.ReferenceID.String()
	}
	return ev
}
