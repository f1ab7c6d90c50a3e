package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/propagation"

	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/resilience"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

const downstream = "customer-service"

// statusError is a non-2xx answer other than 404
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("customer service returned status %d", e.status)
}

// Client implements domain.CustomerGateway over the customer service HTTP API.
// Calls go through a circuit breaker and are retried on network errors and
// 5xx answers. Found profiles are cached for a short TTL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	cache      *expirable.LRU[uuid.UUID, *domain.CustomerProfile]
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a customer service client from configuration
func NewClient(cfg config.CustomerConfig, logger *logging.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	breakerConfig := resilience.DefaultCircuitBreakerConfig(downstream)
	breaker := resilience.NewCircuitBreaker(breakerConfig, logger.Logger, func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, resilience.StateValue(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	})

	retry := resilience.DefaultRetryConfig()
	if cfg.RetryMaxTries > 0 {
		retry.MaxAttempts = cfg.RetryMaxTries
	}
	retry.RetryableErrors = retryable

	var cache *expirable.LRU[uuid.UUID, *domain.CustomerProfile]
	if cfg.CacheSize > 0 {
		cache = expirable.NewLRU[uuid.UUID, *domain.CustomerProfile](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		retry:      retry,
		cache:      cache,
		logger:     logger,
		metrics:    m,
	}
}

// GetCustomerDetail returns the profile, or (nil, nil) when the customer does not exist
func (c *Client) GetCustomerDetail(ctx context.Context, customerID uuid.UUID) (*domain.CustomerProfile, error) {
	if profile, ok := c.cached(customerID); ok {
		return profile, nil
	}

	var profile *domain.CustomerProfile
	endpoint := fmt.Sprintf("%s/api/customer/%s", c.baseURL, customerID)
	found, err := c.call(ctx, "get_customer", endpoint, &profile)
	if err != nil {
		return nil, err
	}
	if !found || profile == nil {
		return nil, nil
	}

	c.remember(profile)
	return profile, nil
}

// GetCustomersByIds returns the profiles that exist, keyed by id. Missing
// customers are simply absent from the map.
func (c *Client) GetCustomersByIds(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]*domain.CustomerProfile, error) {
	result := make(map[uuid.UUID]*domain.CustomerProfile, len(customerIDs))
	seen := make(map[uuid.UUID]bool, len(customerIDs))
	query := url.Values{}
	for _, id := range customerIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if profile, ok := c.cached(id); ok {
			result[id] = profile
			continue
		}
		query.Add("customerIds", id.String())
	}
	if len(query) == 0 {
		return result, nil
	}

	// the service answers a JSON object keyed by customer id
	var profiles map[uuid.UUID]*domain.CustomerProfile
	endpoint := fmt.Sprintf("%s/api/customer/by-ids?%s", c.baseURL, query.Encode())
	if _, err := c.call(ctx, "get_customers_by_ids", endpoint, &profiles); err != nil {
		return nil, err
	}

	for id, profile := range profiles {
		if profile == nil {
			continue
		}
		if profile.ID == uuid.Nil {
			profile.ID = id
		}
		result[id] = profile
		c.remember(profile)
	}
	return result, nil
}

// call performs a GET and decodes a 200 body into out. It reports found=false
// on 404.
func (c *Client) call(ctx context.Context, operation, endpoint string, out interface{}) (bool, error) {
	start := time.Now()
	status := 0

	found, err := resilience.RetryWithResult(ctx, c.retry, func() (bool, error) {
		return resilience.ExecuteWithResult(ctx, c.breaker, func() (bool, error) {
			var err error
			status, err = c.get(ctx, endpoint, out)
			if status == http.StatusNotFound {
				return false, nil
			}
			return err == nil, err
		})
	})

	duration := time.Since(start)
	c.metrics.RecordExternalCall(downstream, operation, err == nil, duration)
	c.logger.ExternalCall(ctx, downstream, operation, status, duration, err)

	if err != nil {
		return false, fmt.Errorf("customer service %s: %w", operation, err)
	}
	return found, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectTraceContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, &statusError{status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode customer response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) cached(id uuid.UUID) (*domain.CustomerProfile, bool) {
	if c.cache == nil {
		return nil, false
	}
	profile, ok := c.cache.Get(id)
	c.metrics.RecordCacheLookup("customer", ok)
	return profile, ok
}

func (c *Client) remember(profile *domain.CustomerProfile) {
	if c.cache != nil {
		c.cache.Add(profile.ID, profile)
	}
}

// retryable accepts transport failures and 5xx answers; an open breaker is final
func retryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

var _ domain.CustomerGateway = (*Client)(nil)
