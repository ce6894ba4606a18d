package kafka

import (
	"context"
	"encoding/json"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/e"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes committed stock events to a Kafka topic, keyed by
// product id so one product's events stay ordered within a partition.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

// envelope is the message value written to the topic.
type envelope struct {
	EventID        string           `json:"event_id"`
	EventTimestamp int64            `json:"event_timestamp"`
	Event          model.StockEvent `json:"event"`
}

func NewProducer(logger *zap.Logger, cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka producer error", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return newProducer(writer, logger)
}

func newProducer(writer messageWriter, logger *zap.Logger) *Producer {
	return &Producer{writer: writer, logger: logger, now: time.Now}
}

func (p *Producer) Publish(ctx context.Context, event model.StockEvent) error {
	msg, err := p.message(event)
	if err != nil {
		return e.Wrap("kafka.Producer.Publish", err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return e.Wrap("kafka.Producer.Publish", err)
	}
	return nil
}

func (p *Producer) message(event model.StockEvent) (kafka.Message, error) {
	value, err := json.Marshal(envelope{
		EventID:        uuid.NewString(),
		EventTimestamp: p.now().UnixNano(),
		Event:          event,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.ProductID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
