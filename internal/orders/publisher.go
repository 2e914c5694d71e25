package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const outboxBatchSize = 100

// OutboxStore lê e confirma eventos pendentes da outbox
type OutboxStore interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkProcessed(ctx context.Context, eventID int64) error
}

// MessageWriter é satisfeito por *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPublisher publica no Kafka os eventos gravados junto com os pedidos.
// A entrega é at-least-once: um evento publicado cuja marcação falhar será reenviado.
type OutboxPublisher struct {
	store    OutboxStore
	writer   MessageWriter
	interval time.Duration
}

func NewOutboxPublisher(store OutboxStore, writer MessageWriter, interval time.Duration) *OutboxPublisher {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxPublisher{store: store, writer: writer, interval: interval}
}

// NewKafkaWriter cria o writer do tópico de pedidos. O balanceamento por hash da
// chave (order_id) mantém os eventos de um pedido na mesma partição.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Run consulta a outbox a cada intervalo até o contexto ser cancelado
func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "📤 [OUTBOX] publisher started", "interval", p.interval)
	for {
		select {
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				slog.ErrorContext(ctx, "❌ [OUTBOX] publish failed", "error", err)
			}
		case <-ctx.Done():
			slog.InfoContext(ctx, "🛑 [OUTBOX] publisher stopped")
			return
		}
	}
}

// PublishPending publica um lote em ordem e para no primeiro erro, para que
// eventos mais novos não passem na frente dos que falharam
func (p *OutboxPublisher) PublishPending(ctx context.Context) (int, error) {
	events, err := p.store.FetchUnprocessed(ctx, outboxBatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(event.AggregateID.String()),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			return published, fmt.Errorf("failed to publish event %d: %w", event.ID, err)
		}
		if err := p.store.MarkProcessed(ctx, event.ID); err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		slog.DebugContext(ctx, "📤 [OUTBOX] events published", "count", published)
	}
	return published, nil
}
