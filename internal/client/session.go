// Copyright (c) 2025 Citrix Monitor MCP Contributors
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Azure/go-ntlmssp"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/config"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/constants"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/debug"
)

// deriveBaseURL returns the OData root for the configured deployment.
// Unknown cloud region codes fall back to the us endpoint rather than
// failing on a configuration typo.
func deriveBaseURL(cfg *config.Config) string {
	if cfg.IsCloud() {
		endpoint, ok := constants.CloudEndpoints[cfg.RegionCode()]
		if !ok {
			endpoint = constants.CloudEndpoints[constants.DefaultRegion]
		}
		return endpoint + constants.CloudODataSuffix
	}
	return strings.TrimRight(cfg.DDCHost, "/") + constants.OnPremODataPath
}

// deriveTokenURL returns the region's trust-token endpoint for cloud mode.
func deriveTokenURL(cfg *config.Config) string {
	endpoint, ok := constants.CloudEndpoints[cfg.RegionCode()]
	if !ok {
		endpoint = constants.CloudEndpoints[constants.DefaultRegion]
	}
	return endpoint + fmt.Sprintf(constants.TokenPathFormat, cfg.CustomerID)
}

// session returns the shared HTTP client, constructing it exactly once per
// process. The client itself is never rebuilt; credential state is applied
// per request via authorize.
func (c *MonitorClient) session(ctx context.Context) (*http.Client, error) {
	c.sessionOnce.Do(func() {
		c.httpClient, c.sessionErr = c.buildSession()
	})
	return c.httpClient, c.sessionErr
}

// buildSession validates the active mode's credentials and builds the
// underlying HTTP client. On-prem mode wraps the transport in an NTLM
// negotiator; cloud mode authenticates with bearer tokens instead.
func (c *MonitorClient) buildSession() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !c.cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var rt http.RoundTripper = transport
	if c.cfg.IsCloud() {
		if !c.cfg.HasCloudCredentials() {
			return nil, &ConfigurationError{
				Reason: "missing cloud credentials; set CITRIX_CUSTOMER_ID, CITRIX_CLIENT_ID, and CITRIX_CLIENT_SECRET",
			}
		}
	} else {
		if !c.cfg.HasOnPremCredentials() {
			return nil, &ConfigurationError{
				Reason: "missing on-prem credentials; set CITRIX_USERNAME and CITRIX_PASSWORD",
			}
		}
		rt = ntlmssp.Negotiator{RoundTripper: transport}
	}

	return &http.Client{
		Timeout:   time.Duration(constants.DefaultTimeout) * time.Second,
		Transport: rt,
	}, nil
}

// authorize applies the current credential to a single request. For cloud
// mode the bearer token is re-derived before every request, which is cheap
// while the cached token is still valid. On-prem requests carry basic
// credentials that the NTLM negotiator upgrades to a challenge-response
// handshake.
func (c *MonitorClient) authorize(ctx context.Context, req *http.Request) error {
	req.Header.Set(constants.Accept, constants.ContentTypeJSON)

	if c.cfg.IsCloud() {
		token, err := c.getToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(constants.Authorization, "CWSAuth bearer="+token)
		req.Header.Set(constants.CitrixCustomerID, c.cfg.CustomerID)
		return nil
	}

	req.SetBasicAuth(c.cfg.QualifiedUsername(), c.cfg.Password)
	return nil
}

// getToken returns the cached bearer token while it is still valid, and
// performs a client-credentials exchange otherwise. The cache lock is not
// held across the exchange: two racing callers past an expired token may
// both exchange redundantly, which the trust endpoint tolerates; last
// write wins.
func (c *MonitorClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, expiry, err := c.exchangeToken(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.tokenExpiry = expiry
	c.mu.Unlock()

	if c.verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Acquired bearer token %s (expires %s)\n",
			debug.MaskToken(token), expiry.Format(time.RFC3339))
	}

	return token, nil
}

// exchangeToken performs the client-credentials grant against the region's
// trust-token endpoint and returns the token with its refresh deadline:
// now + expires_in minus a 5-minute safety margin.
func (c *MonitorClient) exchangeToken(ctx context.Context) (string, time.Time, error) {
	httpClient, err := c.session(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set(constants.ContentType, constants.ContentTypeFormURL)

	if c.verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] POST %s\n", debug.MaskURL(c.tokenURL))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", time.Time{}, &AuthenticationError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string      `json:"access_token"`
		ExpiresIn   json.Number `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, &AuthenticationError{Status: resp.StatusCode, Body: "token response missing access_token"}
	}

	expiresIn := int64(constants.DefaultTokenLifetime)
	if v, err := payload.ExpiresIn.Int64(); err == nil && v > 0 {
		expiresIn = v
	}

	expiry := time.Now().Add(time.Duration(expiresIn-constants.TokenRefreshMargin) * time.Second)
	return payload.AccessToken, expiry, nil
}
