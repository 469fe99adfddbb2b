package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/pipeline"
	"todo-api/internal/queue"
	"todo-api/internal/sequence"
	"todo-api/internal/settings"
	"todo-api/internal/whitelist"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errNoSequence = errors.New("log id sequence is not configured")

// GetWhitelist returns every whitelist entry.
func GetWhitelist(c *gin.Context) {
	c.JSON(http.StatusOK, whitelist.All())
}

// GetWhitelistEntry returns the entry named by the body value; unknown names yield the
// empty entry.
func GetWhitelistEntry(c *gin.Context) {
	m := pipeline.Model[models.GenericViewModel](c)
	c.JSON(http.StatusOK, whitelist.Get(m.Value))
}

// LogController serves /api/log. A nil publisher records entries in-process.
type LogController struct {
	seq       sequence.Sequence
	publisher *queue.LogPublisher
}

func NewLogController(seq sequence.Sequence, publisher *queue.LogPublisher) *LogController {
	return &LogController{seq: seq, publisher: publisher}
}

// NextLogID hands out the next client log id.
func (h *LogController) NextLogID(c *gin.Context) {
	if h.seq == nil {
		_ = c.Error(errNoSequence)
		return
	}
	id, err := h.seq.Next(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, id)
}

// WriteLog accepts a client log entry and echoes it.
func (h *LogController) WriteLog(c *gin.Context) {
	ctx := c.Request.Context()
	entry := pipeline.Model[models.LogEntry](c)
	msg := &models.LogMessage{
		Entry:      *entry,
		RequestID:  c.Writer.Header().Get(middleware.RequestIDHeader),
		ReceivedAt: time.Now().UTC(),
	}
	if h.publisher == nil {
		queue.Record(ctx, msg)
	} else if err := h.publisher.Publish(ctx, msg); err != nil {
		logger.Warn(ctx, "Client log publish failed; recording locally", "error", err)
		queue.Record(ctx, msg)
	}
	c.JSON(http.StatusOK, entry)
}

// GetConfig returns the flattened app settings with the build version.
func GetConfig(path, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := settings.Load(path, version)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// SequencePinger adapts a sequence to the readiness probe.
func SequencePinger(s sequence.Sequence) Pinger {
	return pingFunc(s.Ping)
}

// Ready returns 200 when every named dependency answers a ping within two seconds.
// Used by K8s readiness probes.
func Ready(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, p := range deps {
			if p == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + " unavailable"})
				return
			}
			if err := p.PingContext(ctx); err != nil {
				logger.Warn(ctx, "Readiness ping failed", "dependency", name, "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + " ping failed"})
				return
			}
		}
		c.String(http.StatusOK, "OK")
	}
}
