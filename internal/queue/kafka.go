package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"todo-api/internal/config"
	"todo-api/internal/models"
	"todo-api/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic creates the client-log topic with configured partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topic exists), app still runs.
func EnsureTopic(ctx context.Context) {
	cfg := config.Get()
	if len(cfg.KafkaBrokers) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaLogTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaLogTopic, "partitions", cfg.KafkaPartitions)
}

var (
	writer *kafka.Writer
	wOnce  sync.Once
)

// Producer returns the global Kafka writer for client logs, or nil when no brokers are
// configured.
func Producer(ctx context.Context) *kafka.Writer {
	wOnce.Do(func() {
		cfg := config.Get()
		if len(cfg.KafkaBrokers) == 0 {
			logger.Info(ctx, "Kafka producer disabled (no brokers)")
			return
		}
		writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaLogTopic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 0,
			Async:        true,
			RequiredAcks: kafka.RequireOne,
		}
		logger.Info(ctx, "Kafka producer initialized", "topic", cfg.KafkaLogTopic, "brokers", cfg.KafkaBrokers)
	})
	return writer
}

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LogPublisher publishes client log entries.
type LogPublisher struct {
	w Writer
}

// NewLogPublisher returns a publisher writing to w.
func NewLogPublisher(w Writer) *LogPublisher {
	return &LogPublisher{w: w}
}

// Publish writes msg keyed by its log id. Non-blocking when using the Async writer.
func (p *LogPublisher) Publish(ctx context.Context, msg *models.LogMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.Entry.LogID, 10)),
		Value: payload,
	})
}

// Decode parses a published payload.
func Decode(payload []byte) (*models.LogMessage, error) {
	var msg models.LogMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Record writes a client log entry to the service log at error level.
func Record(ctx context.Context, msg *models.LogMessage) {
	l := logger.FromContext(ctx)
	if msg.RequestID != "" {
		l = l.With("request_id", msg.RequestID)
	}
	l.ErrorContext(ctx,
		fmt.Sprintf("Client Error Log: ID: %d, Message: %s", msg.Entry.LogID, msg.Entry.Message),
		"extra_info", msg.Entry.ExtraInfo,
		"received_at", msg.ReceivedAt,
	)
}

// Topic returns the client-log topic name.
func Topic() string {
	return config.Get().KafkaLogTopic
}

// Brokers returns Kafka broker addresses.
func Brokers() []string {
	return config.Get().KafkaBrokers
}
