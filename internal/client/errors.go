package client

import "fmt"

// ConfigurationError indicates missing or invalid credentials for the active
// deployment mode. It is fatal for the call and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// AuthenticationError indicates the trust-token endpoint rejected the
// client-credentials exchange. The next call retries the exchange fresh.
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("token exchange failed with HTTP %d: %s", e.Status, e.Body)
}

// RateLimitError indicates 429 responses persisted past the retry budget.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d retries", e.Attempts)
}

// UpstreamError wraps a non-2xx data response from the Monitor Service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// TransportError wraps a network-level failure (connection refused, timeout).
// Transport errors surface immediately and are never retried by this layer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
