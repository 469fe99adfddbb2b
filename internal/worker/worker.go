package worker

import (
	"context"
	"sync/atomic"

	"todo-api/internal/config"
	"todo-api/internal/queue"
	"todo-api/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Reader is the part of kafka.Reader the worker uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Run starts the Kafka consumer that drains client logs into the service log.
// One consumer per process; scale by running more replicas (consumer group shares partitions).
func Run(ctx context.Context) {
	cfg := config.Get()
	brokers := queue.Brokers()
	if len(brokers) == 0 {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}
	topic := queue.Topic()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", topic)
	n := Consume(ctx, reader)
	logger.Info(ctx, "Kafka consumer stopped", "processed", n)
}

// Consume processes messages until ctx is done and returns how many were handled.
func Consume(ctx context.Context, reader Reader) int64 {
	var processed int64
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return atomic.LoadInt64(&processed)
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		atomic.AddInt64(&processed, 1)
	}
}

func handleMessage(ctx context.Context, payload []byte) error {
	msg, err := queue.Decode(payload)
	if err != nil {
		return err
	}
	queue.Record(ctx, msg)
	return nil
}
