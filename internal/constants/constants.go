package constants

// Server identity
const (
	MCPServerName      = "citrix-monitor-mcp"
	MCPServerVersion   = "1.0.0"
	MCPProtocolVersion = "2024-11-05"
)

// CloudEndpoints maps Citrix Cloud region codes to their API hosts.
// An unknown region falls back to DefaultRegion.
var CloudEndpoints = map[string]string{
	"us":   "https://api-us.cloud.com",
	"eu":   "https://api-eu.cloud.com",
	"ap-s": "https://api-ap-s.cloud.com",
	"jp":   "https://api.citrixcloud.jp",
}

// Deployment modes
const (
	DeploymentCloud  = "cloud"
	DeploymentOnPrem = "onprem"
	DefaultRegion    = "us"
)

// Service paths
const (
	CloudODataSuffix = "/monitorodata"
	OnPremODataPath  = "/Citrix/Monitor/OData/v4/Data"
	TokenPathFormat  = "/cctrustoauth2/%s/tokens/clients"
)

// OData system query options
const (
	QueryFilter  = "$filter"
	QuerySelect  = "$select"
	QueryExpand  = "$expand"
	QueryOrderBy = "$orderby"
	QueryTop     = "$top"
	QuerySkip    = "$skip"
	QueryCount   = "$count"
	QueryApply   = "$apply"
)

// HTTP headers
const (
	ContentType      = "Content-Type"
	Accept           = "Accept"
	Authorization    = "Authorization"
	CitrixCustomerID = "Citrix-CustomerId"
)

// Content types
const (
	ContentTypeJSON    = "application/json"
	ContentTypeFormURL = "application/x-www-form-urlencoded"
)

// Token lifecycle defaults (seconds)
const (
	DefaultTokenLifetime = 3600
	TokenRefreshMargin   = 300
)

// DefaultTimeout is the HTTP client timeout in seconds
const DefaultTimeout = 60
