package idempotency

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

const (
	// HeaderIdempotencyKey is the HTTP header name for the idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks a response served from the idempotency store
	HeaderReplayed = "Idempotent-Replayed"

	// CodeParameterMismatch is returned when a key is reused for a different request
	CodeParameterMismatch = "IDEMPOTENCY_PARAMETER_MISMATCH"
)

// responseWriter captures the body and status written by downstream handlers
type responseWriter struct {
	gin.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware deduplicates mutating requests carrying an Idempotency-Key.
// A completed key replays its stored response, a key in flight answers 409
// and a key reused with a different body answers 422.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		responder := middleware.NewErrorResponder(c, config.Logger.Logger)

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				responder.RespondWithAppError(errors.ErrBadRequest("Idempotency-Key header is required for this operation").
					WithReason("IDEMPOTENCY_KEY_REQUIRED"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			responder.RespondWithAppError(errors.ErrBadRequest(fmt.Sprintf("Invalid idempotency key: %v", err)).
				WithReason("IDEMPOTENCY_KEY_INVALID"))
			c.Abort()
			return
		}

		var userID string
		if config.UserIDExtractor != nil {
			userID = config.UserIDExtractor(c)
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		process(c, config, responder, key, userID, ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body))
	}
}

func process(c *gin.Context, config *Config, responder *middleware.ErrorResponder, key, userID, fingerprint string) {
	ctx := c.Request.Context()
	logger := config.Logger.WithContext(ctx)
	method := c.Request.Method
	now := time.Now().UTC()

	existing, isNew, err := config.Store.Acquire(ctx, &Key{
		ServiceID:          config.ServiceName,
		UserID:             userID,
		Key:                key,
		RequestPath:        c.Request.URL.Path,
		RequestMethod:      method,
		RequestFingerprint: fingerprint,
		CreatedAt:          now,
		ExpiresAt:          now.Add(config.RetentionPeriod),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to acquire idempotency lock", "key", key, "path", c.Request.URL.Path)
		record(config, method, "storage_error")
		responder.RespondWithAppError(errors.ErrServiceUnavailable("idempotency store").Wrap(err))
		c.Abort()
		return
	}

	if !isNew {
		if existing.RequestFingerprint != fingerprint {
			logger.Warn("Idempotency key reused with different parameters", "key", key, "path", c.Request.URL.Path)
			record(config, method, "mismatch")
			responder.RespondWithAppError(errors.NewAppError(CodeParameterMismatch,
				"Request parameters differ from original request with this idempotency key", http.StatusUnprocessableEntity))
			c.Abort()
			return
		}

		if existing.IsCompleted() {
			logger.Info("Replaying idempotent response", "key", key, "path", c.Request.URL.Path, "statusCode", existing.ResponseCode)
			record(config, method, "replay")
			for k, v := range existing.ResponseHeaders {
				c.Header(k, v)
			}
			c.Header(HeaderReplayed, "true")
			c.Data(existing.ResponseCode, contentType(existing.ResponseHeaders), existing.ResponseBody)
			c.Abort()
			return
		}

		if existing.IsLocked() && time.Since(*existing.LockedAt) < config.LockTimeout {
			inFlight(c, config, responder, method)
			return
		}

		// stale or released lock; take it over unless another retry did first
		ok, err := config.Store.Relock(ctx, existing.ID, existing.LockedAt)
		if err != nil {
			logger.WithError(err).Error("Failed to relock idempotency key", "key", key)
			record(config, method, "storage_error")
			responder.RespondWithAppError(errors.ErrServiceUnavailable("idempotency store").Wrap(err))
			c.Abort()
			return
		}
		if !ok {
			inFlight(c, config, responder, method)
			return
		}
	}

	record(config, method, "miss")

	writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}, statusCode: http.StatusOK}
	c.Writer = writer

	c.Next()

	// server failures are not cached so the client's retry runs again
	if writer.statusCode >= http.StatusInternalServerError {
		if err := config.Store.Release(ctx, existing.ID); err != nil {
			logger.WithError(err).Error("Failed to release idempotency key", "key", key)
		}
		return
	}

	responseBody := writer.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		logger.Warn("Response too large to cache", "key", key, "size", len(responseBody), "maxSize", config.MaxResponseSize)
		responseBody = []byte(fmt.Sprintf(`{"status":"error","message":"Response too large to cache","size":%d}`, len(responseBody)))
	}

	if err := config.Store.Complete(ctx, existing.ID, writer.statusCode, responseBody, extractResponseHeaders(c)); err != nil {
		logger.WithError(err).Error("Failed to store idempotency response", "key", key)
		record(config, method, "storage_error")
	}
}

func inFlight(c *gin.Context, config *Config, responder *middleware.ErrorResponder, method string) {
	record(config, method, "in_flight")
	responder.RespondWithAppError(errors.ErrConflict("A request with this idempotency key is currently being processed").
		WithReason("IDEMPOTENCY_CONCURRENT_REQUEST"))
	c.Abort()
}

func record(config *Config, method, outcome string) {
	if config.Metrics != nil {
		config.Metrics.RecordIdempotency(method, outcome)
	}
}

func isMutatingMethod(method string) bool {
	return method == http.MethodPost ||
		method == http.MethodPut ||
		method == http.MethodPatch ||
		method == http.MethodDelete
}

func contentType(headers map[string]string) string {
	if ct, ok := headers["Content-Type"]; ok && ct != "" {
		return ct
	}
	return "application/json; charset=utf-8"
}

// extractResponseHeaders keeps the first value of each response header,
// skipping per-request correlation headers
func extractResponseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for k, v := range c.Writer.Header() {
		if len(v) == 0 {
			continue
		}
		switch k {
		case middleware.HeaderRequestID, middleware.HeaderCorrelationID, HeaderReplayed:
			continue
		}
		headers[k] = v[0]
	}
	return headers
}
