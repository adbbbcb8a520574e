package repo

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ledger/config"
)

// EventWriter publishes committed transfer events. Failures are the
// caller's to log; the ledger state has already committed by then.
type EventWriter interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type KafkaWriter struct {
	writer *kafka.Writer
}

func NewKafkaWriter(cfg *config.Config) EventWriter {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  []string{cfg.Kafka.Broker},
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaWriter{writer: w}
}

func (kw *KafkaWriter) Publish(ctx context.Context, key string, value []byte) error {
	return kw.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// KafkaConsumer drains the transfer topic and forwards each event to
// Cloud Pub/Sub for downstream consumers.
type KafkaConsumer struct {
	reader *kafka.Reader
	ps     PubSubInterface
	logger *zap.SugaredLogger
}

func NewKafkaConsumer(ps PubSubInterface, cfg *config.Config, logger *zap.Logger) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Kafka.Broker},
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.GroupID,
		StartOffset: kafka.FirstOffset,
	})
	return &KafkaConsumer{
		reader: r,
		ps:     ps,
		logger: logger.Sugar(),
	}
}

func (c *KafkaConsumer) Consume(ctx context.Context) error {
	c.logger.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warnw("read kafka message", "error", err)
			time.Sleep(2 * time.Second)
			continue
		}

		c.logger.Infow("kafka message",
			"topic", m.Topic, "key", string(m.Key))

		if err := c.ps.Publish(m.Value); err != nil {
			c.logger.Errorw("forward to pubsub", "error", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
