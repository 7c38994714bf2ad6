package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/config"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/constants"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/debug"
)

// MonitorClient handles HTTP communication with the Citrix Monitor Service
// OData API. One client is constructed per process and shared across all
// tool handlers; the underlying HTTP session is built lazily on first use
// and never rebuilt.
type MonitorClient struct {
	cfg     *config.Config
	verbose bool

	baseURL  string // OData root for the configured deployment
	tokenURL string // trust-token endpoint (cloud mode only)

	retryConfig *RetryConfig

	httpClient  *http.Client
	sessionOnce sync.Once
	sessionErr  error

	mu          sync.Mutex // guards the token cache; not held across the exchange
	token       string
	tokenExpiry time.Time
}

// QuerySpec describes one OData collection request. Only the entity name is
// validated; OData syntax correctness of the remaining fields is the
// caller's responsibility.
type QuerySpec struct {
	Entity  string
	Filter  string
	Select  []string
	OrderBy string
	Top     int
	Skip    int
	Expand  []string
	Count   bool
}

// NewMonitorClient creates a new Monitor Service client
func NewMonitorClient(cfg *config.Config, verbose bool) *MonitorClient {
	return &MonitorClient{
		cfg:         cfg,
		verbose:     verbose,
		baseURL:     deriveBaseURL(cfg),
		tokenURL:    deriveTokenURL(cfg),
		retryConfig: DefaultRetryConfig(),
	}
}

// BaseURL returns the OData root URL for the configured deployment
func (c *MonitorClient) BaseURL() string {
	return c.baseURL
}

// SetRetryConfig overrides the rate-limit retry behavior
func (c *MonitorClient) SetRetryConfig(cfg *RetryConfig) {
	if cfg != nil {
		c.retryConfig = cfg
	}
}

// encodeQueryParams encodes URL query parameters with proper space encoding.
// OData servers expect spaces encoded as %20, not + (RFC 3986).
func encodeQueryParams(params url.Values) string {
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}

func (s QuerySpec) buildParams() url.Values {
	params := url.Values{}
	if s.Filter != "" {
		params.Set(constants.QueryFilter, s.Filter)
	}
	if len(s.Select) > 0 {
		params.Set(constants.QuerySelect, strings.Join(s.Select, ","))
	}
	if s.OrderBy != "" {
		params.Set(constants.QueryOrderBy, s.OrderBy)
	}
	if s.Top > 0 {
		params.Set(constants.QueryTop, strconv.Itoa(s.Top))
	}
	if s.Skip > 0 {
		params.Set(constants.QuerySkip, strconv.Itoa(s.Skip))
	}
	if len(s.Expand) > 0 {
		params.Set(constants.QueryExpand, strings.Join(s.Expand, ","))
	}
	if s.Count {
		params.Set(constants.QueryCount, "true")
	}
	return params
}

// executeWithRetry issues one authorized request, retrying on HTTP 429 with
// a linear backoff (5s, 10s, 15s by default). Any non-429 response is
// returned as-is; the caller decides what to raise on non-success status.
// Network-level failures surface immediately as TransportError and are
// never retried.
func (c *MonitorClient) executeWithRetry(ctx context.Context, method, rawURL string, params url.Values) (*http.Response, error) {
	httpClient, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := rawURL
	if len(params) > 0 {
		fullURL += "?" + encodeQueryParams(params)
	}

	for attempt := 0; attempt < c.retryConfig.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if err := c.authorize(ctx, req); err != nil {
			return nil, err
		}

		if c.verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] %s %s\n", method, debug.MaskURL(fullURL))
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, &TransportError{Err: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		wait := c.retryConfig.Backoff(attempt)
		if c.verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Rate limited (attempt %d/%d), waiting %v\n",
				attempt+1, c.retryConfig.MaxRetries, wait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, &RateLimitError{Attempts: c.retryConfig.MaxRetries}
}

// Query executes an OData collection query with automatic pagination,
// following @odata.nextLink until the server stops returning one. Follow-up
// requests go to the link exactly as given, with no parameters attached.
// Records are returned in page-arrival order.
func (c *MonitorClient) Query(ctx context.Context, spec QuerySpec) ([]map[string]interface{}, error) {
	if spec.Entity == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	params := spec.buildParams()
	results := make([]map[string]interface{}, 0)
	next := c.baseURL + "/" + spec.Entity

	for next != "" {
		resp, err := c.executeWithRetry(ctx, http.MethodGet, next, params)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
		}

		// A page without a value field contributes zero records.
		var page struct {
			Value    []map[string]interface{} `json:"value"`
			NextLink string                   `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode response page: %w", err)
		}

		results = append(results, page.Value...)
		next = page.NextLink
		params = nil // the next link is self-contained
	}

	return results, nil
}

// QuerySingle retrieves one entity by key. The key is interpolated literally
// into the URL, so callers must pre-quote string keys. A 404 yields (nil,
// nil) rather than an error.
func (c *MonitorClient) QuerySingle(ctx context.Context, entity, key string, expand []string) (map[string]interface{}, error) {
	params := url.Values{}
	if len(expand) > 0 {
		params.Set(constants.QueryExpand, strings.Join(expand, ","))
	}

	endpoint := fmt.Sprintf("%s/%s(%s)", c.baseURL, entity, key)
	resp, err := c.executeWithRetry(ctx, http.MethodGet, endpoint, params)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var record map[string]interface{}
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	return record, nil
}

// Aggregate executes an OData $apply aggregation and returns the decoded
// body unmodified. Aggregation responses are single objects; no pagination
// applies.
func (c *MonitorClient) Aggregate(ctx context.Context, entity, apply string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set(constants.QueryApply, apply)

	resp, err := c.executeWithRetry(ctx, http.MethodGet, c.baseURL+"/"+entity, params)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation result: %w", err)
	}
	return result, nil
}

// Count returns the number of entities matching the filter, using the
// plain-text $count endpoint.
func (c *MonitorClient) Count(ctx context.Context, entity, filter string) (int, error) {
	params := url.Values{}
	if filter != "" {
		params.Set(constants.QueryFilter, filter)
	}

	resp, err := c.executeWithRetry(ctx, http.MethodGet, c.baseURL+"/"+entity+"/"+constants.QueryCount, params)
	if err != nil {
		return 0, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse count response %q: %w", strings.TrimSpace(string(body)), err)
	}
	return count, nil
}
