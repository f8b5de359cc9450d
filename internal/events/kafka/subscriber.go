package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/models/events"
)

// Subscriber forwards terminal transaction events to a Kafka topic as JSON.
// PENDING events are dropped: downstream consumers only care about outcomes.
type Subscriber struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewSubscriber(brokers []string, topic string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (s *Subscriber) OnTransactionEvent(event events.TransactionEvent) {
	if !event.Terminal() {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal transaction event", zap.Error(err))
		return
	}

	err = s.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(strconv.FormatInt(event.FromAccount, 10)),
		Value: data,
	})
	if err != nil {
		// Losing a dashboard event must never fail the operation.
		s.logger.Error("write transaction event to kafka", zap.Error(err))
	}
}

func (s *Subscriber) Close() error {
	return s.writer.Close()
}
