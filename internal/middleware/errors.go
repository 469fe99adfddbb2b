package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"todo-api/internal/repository"
	"todo-api/pkg/apperror"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Classify maps an error raised by a handler onto an application error.
func Classify(err error) *apperror.Error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return apperror.Wrap(err, apperror.CodeConflict, "The record was changed by another request.")
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(err, apperror.CodeConflict, "The record already exists.")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.Wrap(err, apperror.CodeNotFound, "Not Found")
	}
	return apperror.From(err)
}

// ErrorHandler writes {statusCode, message} for the last error a handler attached with
// c.Error, unless a response was already written. Internal faults are logged and never
// described to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		appErr := Classify(err)
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "Unhandled error", "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
		}
		c.AbortWithStatusJSON(status, apperror.Body{StatusCode: status, Message: appErr.ClientMessage()})
	}
}

// Recovery turns a panic into a 500 with the generic error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "Panic recovered in HTTP handler",
			"panic", fmt.Sprint(recovered),
			"stack_trace", string(debug.Stack()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apperror.Body{
			StatusCode: http.StatusInternalServerError,
			Message:    apperror.InternalMessage,
		})
	})
}

// RequestLogger tags the request context with a request id and logs each request once
// it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info(ctx, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
