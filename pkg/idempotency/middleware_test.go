package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// memStore is an in-memory Store keyed by service/user/key
type memStore struct {
	mu         sync.Mutex
	keys       map[string]*Key
	acquireErr error
	released   int
}

func newMemStore() *memStore {
	return &memStore{keys: map[string]*Key{}}
}

func scopeOf(k *Key) string { return k.ServiceID + "|" + k.UserID + "|" + k.Key }

func (s *memStore) Acquire(_ context.Context, key *Key) (*Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, false, s.acquireErr
	}
	if existing, ok := s.keys[scopeOf(key)]; ok {
		cp := *existing
		return &cp, false, nil
	}
	now := time.Now().UTC()
	key.ID = uuid.New()
	key.LockedAt = &now
	cp := *key
	s.keys[scopeOf(key)] = &cp
	return key, true, nil
}

func (s *memStore) find(id uuid.UUID) *Key {
	for _, k := range s.keys {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func (s *memStore) Relock(_ context.Context, id uuid.UUID, prev *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.find(id)
	if k == nil || k.CompletedAt != nil {
		return false, nil
	}
	if (prev == nil) != (k.LockedAt == nil) || (prev != nil && !prev.Equal(*k.LockedAt)) {
		return false, nil
	}
	now := time.Now().UTC()
	k.LockedAt = &now
	return true, nil
}

func (s *memStore) Complete(_ context.Context, id uuid.UUID, code int, body []byte, headers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.find(id)
	if k == nil {
		return errors.New("not found")
	}
	now := time.Now().UTC()
	k.ResponseCode, k.ResponseBody, k.ResponseHeaders = code, append([]byte(nil), body...), headers
	k.CompletedAt, k.LockedAt = &now, nil
	return nil
}

func (s *memStore) Release(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k := s.find(id); k != nil {
		k.LockedAt = nil
	}
	s.released++
	return nil
}

func (s *memStore) Purge(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for scope, k := range s.keys {
		if k.ExpiresAt.Before(before) {
			delete(s.keys, scope)
			n++
		}
	}
	return n, nil
}

type harness struct {
	store  *memStore
	router *gin.Engine
	calls  int
	status int
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{store: newMemStore(), status: http.StatusCreated}
	logger := logging.New(&logging.Config{Level: logging.LevelError, ServiceName: "idem-test", Output: &bytes.Buffer{}})

	cfg := DefaultConfig("idem-test", h.store, logger)
	cfg.Metrics = metrics.New(metrics.DefaultConfig("idem-test"))
	cfg.UserIDExtractor = middleware.GetActorID
	if mutate != nil {
		mutate(cfg)
	}

	h.router = gin.New()
	h.router.Use(middleware.CorrelationID())
	h.router.Use(Middleware(cfg))
	handler := func(c *gin.Context) {
		h.calls++
		c.JSON(h.status, gin.H{"call": h.calls})
	}
	h.router.POST("/shipments", handler)
	h.router.GET("/shipments", handler)
	return h
}

func (h *harness) do(method, body, key string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/shipments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.APIErrorResponse {
	t.Helper()
	var body middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMiddlewareWithoutKey(t *testing.T) {
	t.Run("optional", func(t *testing.T) {
		h := newHarness(t, nil)
		w := h.do(http.MethodPost, `{"a":1}`, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, h.store.keys)
	})

	t.Run("required", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.RequireKey = true })
		w := h.do(http.MethodPost, `{"a":1}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "IDEMPOTENCY_KEY_REQUIRED", errorBody(t, w).Details["reason"])
		assert.Zero(t, h.calls)
	})
}

func TestMiddlewareSkipsReads(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.RequireKey = true })
	w := h.do(http.MethodGet, "", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, h.calls)
}

func TestMiddlewareRejectsInvalidKey(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodPost, `{}`, "key with spaces")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IDEMPOTENCY_KEY_INVALID", errorBody(t, w).Details["reason"])
	assert.Zero(t, h.calls)
}

func TestMiddlewareReplaysCompletedRequest(t *testing.T) {
	h := newHarness(t, nil)

	first := h.do(http.MethodPost, `{"a":1}`, "order-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(HeaderReplayed))

	second := h.do(http.MethodPost, `{"a":1}`, "order-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, h.calls)
}

func TestMiddlewareScopesKeysPerActor(t *testing.T) {
	h := newHarness(t, nil)

	h.do(http.MethodPost, `{"a":1}`, "order-1", middleware.HeaderActorID, "alice")
	w := h.do(http.MethodPost, `{"a":1}`, "order-1", middleware.HeaderActorID, "bob")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
	assert.Equal(t, 2, h.calls)
}

func TestMiddlewareParameterMismatch(t *testing.T) {
	h := newHarness(t, nil)

	h.do(http.MethodPost, `{"a":1}`, "order-1")
	w := h.do(http.MethodPost, `{"a":2}`, "order-1")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeParameterMismatch, errorBody(t, w).Code)
	assert.Equal(t, 1, h.calls)
}

func TestMiddlewareConcurrentRequest(t *testing.T) {
	h := newHarness(t, nil)

	now := time.Now().UTC()
	h.store.keys["idem-test||order-1"] = &Key{
		ID:                 uuid.New(),
		ServiceID:          "idem-test",
		Key:                "order-1",
		RequestFingerprint: ComputeFingerprint(http.MethodPost, "/shipments", []byte(`{"a":1}`)),
		LockedAt:           &now,
	}

	w := h.do(http.MethodPost, `{"a":1}`, "order-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "IDEMPOTENCY_CONCURRENT_REQUEST", errorBody(t, w).Details["reason"])
	assert.Zero(t, h.calls)
}

func TestMiddlewareTakesOverStaleLock(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.LockTimeout = time.Minute })

	stale := time.Now().UTC().Add(-time.Hour)
	h.store.keys["idem-test||order-1"] = &Key{
		ID:                 uuid.New(),
		ServiceID:          "idem-test",
		Key:                "order-1",
		RequestFingerprint: ComputeFingerprint(http.MethodPost, "/shipments", []byte(`{"a":1}`)),
		LockedAt:           &stale,
	}

	w := h.do(http.MethodPost, `{"a":1}`, "order-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, h.calls)
	assert.True(t, h.store.keys["idem-test||order-1"].IsCompleted())
}

func TestMiddlewareDoesNotCacheServerErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.status = http.StatusInternalServerError

	w := h.do(http.MethodPost, `{"a":1}`, "order-1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, h.store.released)

	h.status = http.StatusCreated
	w = h.do(http.MethodPost, `{"a":1}`, "order-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
	assert.Equal(t, 2, h.calls)
}

func TestMiddlewareCachesClientErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.status = http.StatusConflict

	h.do(http.MethodPost, `{"a":1}`, "order-1")
	w := h.do(http.MethodPost, `{"a":1}`, "order-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderReplayed))
	assert.Equal(t, 1, h.calls)
}

func TestMiddlewareStorageFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.store.acquireErr = errors.New("connection reset")

	w := h.do(http.MethodPost, `{"a":1}`, "order-1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, h.calls)
}

func TestMiddlewareTruncatesLargeResponses(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxResponseSize = 4 })

	h.do(http.MethodPost, `{"a":1}`, "order-1")
	stored := h.store.keys["idem-test||order-1"]
	require.NotNil(t, stored)
	assert.Contains(t, string(stored.ResponseBody), "Response too large to cache")
}

func TestRunCleanupPurgesExpiredKeys(t *testing.T) {
	store := newMemStore()
	store.keys["expired"] = &Key{ID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)}
	store.keys["live"] = &Key{ID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunCleanup(ctx, store, 10*time.Millisecond, logging.New(&logging.Config{Level: logging.LevelError, Output: &bytes.Buffer{}}))
		close(done)
	}()

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.keys["expired"]
		return !ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.keys, "live")
}
