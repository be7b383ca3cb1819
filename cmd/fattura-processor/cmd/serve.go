package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/ratelimit"
	"github.com/rezonia/fattura-processor/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server.

The API provides endpoints for:
  - POST   /api/v1/invoices/parse          - Parse an invoice (?strict=true)
  - POST   /api/v1/invoices/validate       - Validate an invoice
  - POST   /api/v1/invoices/import         - Parse and match the supplier
  - POST   /api/v1/suppliers               - Register a supplier
  - GET    /api/v1/suppliers/:id           - Get a supplier
  - POST   /api/v1/closures/totals         - Compute closure totals
  - POST   /api/v1/closures/post           - Post a closure
  - GET    /api/v1/closures/:id/entries    - List journal entries
  - DELETE /api/v1/closures/:id/entries    - Reverse a closure
  - GET    /health                         - Health check

Examples:
  # Start server with the configured address
  fattura-processor serve

  # Start on a custom address in debug mode
  fattura-processor serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default from config)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	address := cfg.Address()
	if serverAddr != "" {
		address = serverAddr
	}

	config := &server.Config{
		Address:             address,
		ReadTimeout:         cfg.Server.ReadTimeout,
		WriteTimeout:        cfg.Server.WriteTimeout,
		MaxUploadBytes:      cfg.Server.MaxUploadBytes,
		Debug:               serverDebug,
		VATRate:             cfg.VATRate(),
		DifferenceThreshold: cfg.DifferenceThreshold(),
		AutoCreateSuppliers: cfg.Supplier.AutoCreate,
		DefaultAccountRef:   cfg.Supplier.DefaultAccountRef,
	}

	log := logger.WithComponent("server")
	opts := []server.Option{server.WithLogger(log)}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.NewCacheStore(time.Minute), cfg.RateLimit.Requests, cfg.RateLimit.Window)
		opts = append(opts, server.WithRateLimiter(limiter))
		log.Info().
			Int("requests", cfg.RateLimit.Requests).
			Dur("window", cfg.RateLimit.Window).
			Msg("rate limiting enabled")
	}

	return server.NewServer(config, store, opts...).Run(cmd.Context())
}
