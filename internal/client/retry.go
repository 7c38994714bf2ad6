// Copyright (c) 2025 Citrix Monitor MCP Contributors
// SPDX-License-Identifier: MIT

package client

import "time"

// RetryConfig defines retry behavior for rate-limited requests.
// Only HTTP 429 responses are retried; all other failures surface on
// first occurrence.
type RetryConfig struct {
	MaxRetries  int           // Maximum number of attempts
	BackoffStep time.Duration // Linear backoff step between attempts
}

// DefaultRetryConfig matches the Monitor Service rate-limit guidance:
// three attempts with a linear 5-second backoff step (5s, 10s, 15s).
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  3,
		BackoffStep: 5 * time.Second,
	}
}

// Backoff returns the delay after a given attempt (0-indexed): attempt 0
// waits one step, attempt 1 waits two steps, and so on.
func (c *RetryConfig) Backoff(attempt int) time.Duration {
	return c.BackoffStep * time.Duration(attempt+1)
}
