// Copyright (c) 2025 Citrix Monitor MCP Contributors
// SPDX-License-Identifier: MIT

package debug

import (
	"net/url"
	"strings"
)

// sensitiveKeys trigger automatic masking in logged URLs and headers
var sensitiveKeys = []string{
	"password", "passwd", "pwd", "secret",
	"token", "api_key", "apikey", "api-key",
	"authorization", "auth", "credential",
	"client_secret", "customerid",
}

// IsSensitiveKey checks if a key name indicates sensitive data
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}

// MaskToken masks a credential, showing only the last 8 characters.
// Values of 8 characters or fewer are fully masked.
func MaskToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-8:]
}

// MaskURL removes sensitive information from a URL before logging: the
// userinfo password and any query parameter whose name looks sensitive.
func MaskURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if parsed.User != nil {
		if _, hasPass := parsed.User.Password(); hasPass {
			parsed.User = url.UserPassword(parsed.User.Username(), "***")
		}
	}

	query := parsed.Query()
	modified := false
	for key := range query {
		if IsSensitiveKey(key) {
			query.Set(key, "***")
			modified = true
		}
	}
	if modified {
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// MaskHeader masks sensitive HTTP header values. Authorization headers keep
// the scheme but mask the credential.
func MaskHeader(name, value string) string {
	if len(value) == 0 {
		return ""
	}

	if strings.EqualFold(name, "authorization") {
		parts := strings.SplitN(value, " ", 2)
		if len(parts) == 2 {
			return parts[0] + " " + MaskToken(parts[1])
		}
		return MaskToken(value)
	}

	if IsSensitiveKey(name) {
		return MaskToken(value)
	}

	return value
}
