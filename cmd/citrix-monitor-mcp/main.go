package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/bridge"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/config"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport/http"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport/stdio"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "citrix-monitor-mcp",
	Short: "Citrix Monitor MCP - read-only MCP tools over the Citrix Monitor Service OData API",
	Long: `Citrix Monitor MCP - read-only MCP tools over the Citrix Monitor Service OData API.

This tool exposes machines, sessions, connections, applications, users and
failure data from a Citrix DaaS (cloud) or Virtual Apps and Desktops (on-prem)
site as Model Context Protocol tools.

Examples:
  citrix-monitor-mcp --customer-id acme --client-id xxx --client-secret yyy
  citrix-monitor-mcp --deployment onprem --ddc-host https://ddc.corp.local --domain CORP --user svc-monitor --password secret
  citrix-monitor-mcp --transport http --http-addr :8080`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	// Load .env file if it exists
	godotenv.Load()

	cfg = &config.Config{}

	// Deployment selection
	rootCmd.Flags().StringVar(&cfg.Deployment, "deployment", "", "Deployment type: 'cloud' or 'onprem' (overrides CITRIX_DEPLOYMENT env var, default cloud)")
	rootCmd.Flags().StringVar(&cfg.Region, "region", "", "Citrix Cloud region: us, eu, ap-s or jp (default us)")

	// Cloud credentials
	rootCmd.Flags().StringVar(&cfg.CustomerID, "customer-id", "", "Citrix Cloud customer ID (overrides CITRIX_CUSTOMER_ID env var)")
	rootCmd.Flags().StringVar(&cfg.ClientID, "client-id", "", "Citrix Cloud API client ID (overrides CITRIX_CLIENT_ID env var)")
	rootCmd.Flags().StringVar(&cfg.ClientSecret, "client-secret", "", "Citrix Cloud API client secret (overrides CITRIX_CLIENT_SECRET env var)")

	// On-prem credentials
	rootCmd.Flags().StringVar(&cfg.DDCHost, "ddc-host", "", "Delivery Controller base URL for on-prem deployments (overrides CITRIX_DDC_HOST env var)")
	rootCmd.Flags().StringVar(&cfg.Domain, "domain", "", "Active Directory domain for on-prem NTLM authentication")
	rootCmd.Flags().StringVarP(&cfg.Username, "user", "u", "", "Username for on-prem NTLM authentication")
	rootCmd.Flags().StringVarP(&cfg.Password, "password", "p", "", "Password for on-prem NTLM authentication")
	rootCmd.Flags().BoolVar(&cfg.VerifySSL, "verify-ssl", true, "Verify TLS certificates (overrides CITRIX_VERIFY_SSL env var; disable for lab DDCs with self-signed certs)")

	// Output and debugging options
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output to stderr")
	rootCmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Alias for --verbose")
	rootCmd.Flags().BoolVar(&cfg.Trace, "trace", false, "Print all registered tools and parameters, then exit")

	// Transport options
	rootCmd.Flags().String("transport", "stdio", "Transport type: 'stdio' or 'http' (SSE)")
	rootCmd.Flags().String("http-addr", ":8080", "HTTP server address (used with --transport http)")

	// Bind flags to viper for environment variable support
	viper.BindPFlag("deployment", rootCmd.Flags().Lookup("deployment"))
	viper.BindPFlag("region", rootCmd.Flags().Lookup("region"))
	viper.BindPFlag("customer_id", rootCmd.Flags().Lookup("customer-id"))
	viper.BindPFlag("client_id", rootCmd.Flags().Lookup("client-id"))
	viper.BindPFlag("client_secret", rootCmd.Flags().Lookup("client-secret"))
	viper.BindPFlag("ddc_host", rootCmd.Flags().Lookup("ddc-host"))
	viper.BindPFlag("verify_ssl", rootCmd.Flags().Lookup("verify-ssl"))
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))

	// Set up environment variable mapping
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CITRIX")
}

func runBridge(cmd *cobra.Command, args []string) error {
	// Handle --debug as alias for --verbose
	if cfg.Debug {
		cfg.Verbose = true
	}

	applyEnvironment(cfg)

	if err := validateCredentials(cfg); err != nil {
		return err
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	monitorBridge := bridge.New(cfg)

	// Handle trace mode
	if cfg.Trace {
		return printTraceInfo(monitorBridge)
	}

	mcpServer := monitorBridge.Server()

	// Create handler function that delegates to the MCP server
	handler := func(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
		return mcpServer.HandleMessage(ctx, msg)
	}

	transportType, _ := cmd.Flags().GetString("transport")

	var trans transport.Transport
	switch transportType {
	case "http", "sse":
		httpAddr, _ := cmd.Flags().GetString("http-addr")
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Starting HTTP/SSE transport on %s\n", httpAddr)
		}
		trans = http.NewSSE(httpAddr, handler)
	case "stdio":
		fallthrough
	default:
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Using stdio transport\n")
		}
		trans = stdio.New(handler)
	}

	monitorBridge.SetTransport(trans)

	// Start bridge in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- monitorBridge.Run()
	}()

	// Wait for signal or error
	select {
	case sig := <-sigChan:
		fmt.Fprintf(os.Stderr, "\n%s received, shutting down server...\n", sig)
		monitorBridge.Stop()
		return nil
	case err := <-errChan:
		return err
	}
}

// applyEnvironment fills credential fields from CITRIX_* environment
// variables when the corresponding flag was not set. Flags always win.
func applyEnvironment(cfg *config.Config) {
	if cfg.Deployment == "" {
		cfg.Deployment = viper.GetString("deployment")
	}
	if cfg.Region == "" {
		cfg.Region = viper.GetString("region")
	}
	if cfg.CustomerID == "" {
		cfg.CustomerID = viper.GetString("customer_id")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = viper.GetString("client_id")
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = viper.GetString("client_secret")
	}
	if cfg.DDCHost == "" {
		cfg.DDCHost = viper.GetString("ddc_host")
	}
	if cfg.Domain == "" {
		cfg.Domain = viper.GetString("domain")
	}
	if cfg.Username == "" {
		cfg.Username = viper.GetString("username")
	}
	if cfg.Password == "" {
		cfg.Password = viper.GetString("password")
	}
	// VerifySSL defaults to true, so a zero-value guard cannot tell "unset"
	// apart. The bound flag lets viper resolve flag > CITRIX_VERIFY_SSL >
	// default.
	cfg.VerifySSL = viper.GetBool("verify_ssl")
}

func validateCredentials(cfg *config.Config) error {
	if cfg.IsCloud() {
		if !cfg.HasCloudCredentials() {
			return fmt.Errorf("cloud deployment requires --customer-id, --client-id and --client-secret (or CITRIX_CUSTOMER_ID, CITRIX_CLIENT_ID, CITRIX_CLIENT_SECRET)")
		}
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Cloud deployment, customer %s, region %s\n", cfg.CustomerID, cfg.RegionCode())
		}
		return nil
	}
	if cfg.DDCHost == "" || !cfg.HasOnPremCredentials() {
		return fmt.Errorf("on-prem deployment requires --ddc-host, --user and --password (or CITRIX_DDC_HOST, CITRIX_USERNAME, CITRIX_PASSWORD)")
	}
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] On-prem deployment, DDC %s, user %s\n", cfg.DDCHost, cfg.QualifiedUsername())
	}
	return nil
}

func printTraceInfo(b *bridge.Bridge) error {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Citrix Monitor MCP Trace Information")
	fmt.Println(strings.Repeat("=", 80))

	data, err := json.MarshalIndent(b.GetTraceInfo(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trace info: %w", err)
	}
	fmt.Println(string(data))

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Trace complete - MCP server initialized but not started")
	fmt.Println(strings.Repeat("=", 80))

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n--- FATAL ERROR ---\n")
		fmt.Fprintf(os.Stderr, "An unexpected error occurred: %v\n", err)
		fmt.Fprintf(os.Stderr, "-------------------\n")
		os.Exit(1)
	}
}
