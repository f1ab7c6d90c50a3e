package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
)

// Context keys
const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyActorID       = "actorId"
)

// HTTP header names
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderActorID       = "X-Actor-ID"
)

// RequestID middleware generates or propagates request IDs
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		withRequestContext(c, func(ctx context.Context) context.Context {
			return logging.ContextWithRequestID(ctx, requestID)
		})

		c.Next()
	}
}

// CorrelationID middleware propagates the correlation id and the acting staff member
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(ContextKeyCorrelationID, correlationID)
		c.Header(HeaderCorrelationID, correlationID)

		actorID := c.GetHeader(HeaderActorID)
		if actorID != "" {
			c.Set(ContextKeyActorID, actorID)
		}

		withRequestContext(c, func(ctx context.Context) context.Context {
			ctx = logging.ContextWithCorrelationID(ctx, correlationID)
			if actorID != "" {
				ctx = logging.ContextWithActorID(ctx, actorID)
			}
			return ctx
		})

		c.Next()
	}
}

func withRequestContext(c *gin.Context, fn func(context.Context) context.Context) {
	c.Request = c.Request.WithContext(fn(c.Request.Context()))
}

// LoggerConfig holds logger middleware configuration
type LoggerConfig struct {
	Logger       *logging.Logger
	ExcludePaths []string
}

// DefaultLoggerConfig returns default logger configuration with health and metrics paths excluded
func DefaultLoggerConfig(logger *logging.Logger) *LoggerConfig {
	return &LoggerConfig{
		Logger:       logger,
		ExcludePaths: []string{"/health", "/ready", "/metrics"},
	}
}

// Logger middleware adds structured request logging
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig(logger))
}

// LoggerWithConfig middleware adds structured request logging with path exclusion
func LoggerWithConfig(config *LoggerConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.ExcludePaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipMap[path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		config.Logger.HTTPRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Request.UserAgent(),
		)
	}
}

// Recovery middleware handles panics and logs them properly
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Panic(c.Request.Context(), err)

				AbortWithAppError(c, errors.ErrInternal("An unexpected error occurred"))
			}
		}()
		c.Next()
	}
}

// GetRequestID extracts request ID from context
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID extracts correlation ID from context
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

// GetActorID extracts the acting staff member id, empty when the caller sent none
func GetActorID(c *gin.Context) string {
	return c.GetString(ContextKeyActorID)
}
