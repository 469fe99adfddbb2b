package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublishRoundTrip(t *testing.T) {
	w := &captureWriter{}
	p := NewLogPublisher(w)
	msg := &models.LogMessage{
		Entry:      models.LogEntry{LogID: 42, Message: "Cannot read property", ExtraInfo: []interface{}{"stack", 3.0}},
		RequestID:  "req-1",
		ReceivedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	got, err := Decode(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, msg.Entry, got.Entry)
	assert.Equal(t, "req-1", got.RequestID)
	assert.True(t, msg.ReceivedAt.Equal(got.ReceivedAt))

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestRecordFormatsClientLog(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.New(&buf, "debug"))

	Record(ctx, &models.LogMessage{Entry: models.LogEntry{LogID: 7, Message: "boom"}, RequestID: "abc"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "Client Error Log: ID: 7, Message: boom", line["msg"])
	assert.Equal(t, "abc", line["request_id"])
}
