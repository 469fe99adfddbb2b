package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"todo-api/pkg/logger"
)

// scriptedReader replays msgs, then cancels the consumer.
type scriptedReader struct {
	msgs      []kafka.Message
	fetchErrs int
	committed int
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErrs > 0 {
		r.fetchErrs--
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed += len(msgs)
	return nil
}

func TestConsumeDrainsClientLogs(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), logger.New(&buf, "debug")))
	defer cancel()

	r := &scriptedReader{
		fetchErrs: 1,
		cancel:    cancel,
		msgs: []kafka.Message{
			{Value: []byte(`{"entry":{"logId":1,"message":"first"}}`)},
			{Value: []byte(`not json`)},
			{Value: []byte(`{"entry":{"logId":2,"message":"second"}}`)},
		},
	}

	n := Consume(ctx, r)

	assert.Equal(t, int64(2), n)
	assert.Equal(t, 3, r.committed)
	out := buf.String()
	assert.Contains(t, out, "Client Error Log: ID: 1, Message: first")
	assert.Contains(t, out, "Client Error Log: ID: 2, Message: second")
	assert.Equal(t, 1, strings.Count(out, "Worker handle failed"))
	assert.Equal(t, 1, strings.Count(out, "Worker fetch failed"))
}
