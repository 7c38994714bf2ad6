package config

import "testing"

func TestDeploymentType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty defaults to cloud", "", "cloud"},
		{"cloud", "cloud", "cloud"},
		{"cloud mixed case", "Cloud", "cloud"},
		{"onprem", "onprem", "onprem"},
		{"on-prem", "on-prem", "onprem"},
		{"on-premises", "on-premises", "onprem"},
		{"unknown falls back to cloud", "hybrid", "cloud"},
		{"whitespace trimmed", "  onprem  ", "onprem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Deployment: tt.input}
			if got := cfg.DeploymentType(); got != tt.expected {
				t.Errorf("DeploymentType() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRegionCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "us"},
		{"us", "us"},
		{"EU", "eu"},
		{" jp ", "jp"},
		{"ap-s", "ap-s"},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			cfg := &Config{Region: tt.input}
			if got := cfg.RegionCode(); got != tt.expected {
				t.Errorf("RegionCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHasCloudCredentials(t *testing.T) {
	cfg := &Config{CustomerID: "acme", ClientID: "id", ClientSecret: "secret"}
	if !cfg.HasCloudCredentials() {
		t.Error("HasCloudCredentials() = false, want true")
	}

	cfg.ClientSecret = ""
	if cfg.HasCloudCredentials() {
		t.Error("HasCloudCredentials() = true with missing secret")
	}
}

func TestQualifiedUsername(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		username string
		expected string
	}{
		{"with domain", "CORP", "svc-monitor", `CORP\svc-monitor`},
		{"without domain", "", "svc-monitor", "svc-monitor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Domain: tt.domain, Username: tt.username}
			if got := cfg.QualifiedUsername(); got != tt.expected {
				t.Errorf("QualifiedUsername() = %q, want %q", got, tt.expected)
			}
		})
	}
}
