package customer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	pkgtesting "github.com/wms-platform/shipment-service/pkg/testing"
)

func newTestClient(baseURL string, cacheSize int) *Client {
	return NewClient(config.CustomerConfig{
		BaseURL:       baseURL,
		Timeout:       2 * time.Second,
		CacheSize:     cacheSize,
		CacheTTL:      time.Minute,
		RetryMaxTries: 3,
	}, pkgtesting.DiscardLogger("customer-test"), metrics.New(metrics.DefaultConfig("customer-test")))
}

func profile(id uuid.UUID) domain.CustomerProfile {
	return domain.CustomerProfile{
		ID:          id,
		FullName:    "Le Van C",
		PhoneNumber: "0933",
		Addresses: []domain.CustomerAddress{
			{ID: uuid.New(), Address: "7 Lake Rd", City: "Hanoi", IsDefaultAddress: true},
		},
	}
}

func TestGetCustomerDetail(t *testing.T) {
	id := uuid.New()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/customer/"+id.String(), r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(profile(id))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 10)

	got, err := client.GetCustomerDetail(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Le Van C", got.FullName)
	require.NotNil(t, got.DefaultAddress())
	assert.Equal(t, "7 Lake Rd", got.DefaultAddress().Address)

	// second lookup is served from the cache
	_, err = client.GetCustomerDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetCustomerDetailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 10).GetCustomerDetail(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetCustomerDetailRetriesServerErrors(t *testing.T) {
	id := uuid.New()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(profile(id))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 0).GetCustomerDetail(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetCustomerDetailFailures(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCalls int32
	}{
		{
			name: "bad request is not retried",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantCalls: 1,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantCalls: 1,
		},
		{
			name: "persistent server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL, 10).GetCustomerDetail(context.Background(), uuid.New())
			assert.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestGetCustomersByIds(t *testing.T) {
	known, cachedID, missing := uuid.New(), uuid.New(), uuid.New()
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/customer/"+cachedID.String() {
			_ = json.NewEncoder(w).Encode(profile(cachedID))
			return
		}
		assert.Equal(t, "/api/customer/by-ids", r.URL.Path)
		requested = r.URL.Query()["customerIds"]
		_ = json.NewEncoder(w).Encode(map[string]domain.CustomerProfile{known.String(): profile(known)})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 10)
	_, err := client.GetCustomerDetail(context.Background(), cachedID)
	require.NoError(t, err)

	got, err := client.GetCustomersByIds(context.Background(), []uuid.UUID{known, cachedID, missing, known})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{known.String(), missing.String()}, requested)
	assert.Len(t, got, 2)
	assert.Contains(t, got, known)
	assert.Contains(t, got, cachedID)
	assert.NotContains(t, got, missing)
}

func TestGetCustomersByIdsEmpty(t *testing.T) {
	got, err := newTestClient("http://127.0.0.1:0", 10).GetCustomersByIds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetCustomersByIdsKeysByMapID(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"` + id.String() + `":{"fullName":"Tran Thi B","addresses":[]}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 10).GetCustomersByIds(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)

	require.Contains(t, got, id)
	assert.Equal(t, id, got[id].ID)
	assert.Equal(t, "Tran Thi B", got[id].FullName)
}
