package config

import (
	"strings"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/constants"
)

// Config holds all configuration options for the Citrix Monitor MCP server
type Config struct {
	// Deployment selection
	Deployment string `mapstructure:"deployment"` // "cloud" or "onprem"
	Region     string `mapstructure:"region"`     // Citrix Cloud region code
	VerifySSL  bool   `mapstructure:"verify_ssl"`

	// Citrix Cloud credentials
	CustomerID   string `mapstructure:"customer_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// On-premises (CVAD) credentials
	DDCHost  string `mapstructure:"ddc_host"`
	Domain   string `mapstructure:"domain"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Output and debugging
	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`
	Trace   bool `mapstructure:"trace"`
}

// DeploymentType returns the normalized deployment mode, defaulting to cloud.
func (c *Config) DeploymentType() string {
	d := strings.ToLower(strings.TrimSpace(c.Deployment))
	if d == "" {
		return constants.DeploymentCloud
	}
	// "on-premises" and "on-prem" are accepted spellings
	if strings.HasPrefix(d, "on") {
		return constants.DeploymentOnPrem
	}
	return constants.DeploymentCloud
}

// IsCloud returns true if the configured deployment is Citrix Cloud
func (c *Config) IsCloud() bool {
	return c.DeploymentType() == constants.DeploymentCloud
}

// RegionCode returns the normalized region code, defaulting to us.
func (c *Config) RegionCode() string {
	r := strings.ToLower(strings.TrimSpace(c.Region))
	if r == "" {
		return constants.DefaultRegion
	}
	return r
}

// HasCloudCredentials returns true if all cloud credentials are present
func (c *Config) HasCloudCredentials() bool {
	return c.CustomerID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// HasOnPremCredentials returns true if on-prem username and password are present
func (c *Config) HasOnPremCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// QualifiedUsername returns domain\username for NTLM authentication.
// With no domain configured, the bare username is used.
func (c *Config) QualifiedUsername() string {
	if c.Domain == "" {
		return c.Username
	}
	return c.Domain + `\` + c.Username
}
