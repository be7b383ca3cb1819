package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/processor"
	"github.com/rezonia/fattura-processor/internal/ratelimit"
	"github.com/rezonia/fattura-processor/internal/supplier"
)

// Config holds server configuration
type Config struct {
	Address             string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxUploadBytes      int64
	Debug               bool
	VATRate             decimal.Decimal
	DifferenceThreshold decimal.Decimal
	AutoCreateSuppliers bool
	DefaultAccountRef   string
}

// Store is the persistence the API needs
type Store interface {
	supplier.Registry
	closure.LedgerStore
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	store    Store
	matcher  *supplier.Matcher
	pipeline *processor.Pipeline
	poster   *closure.Poster
	limiter  *ratelimit.Limiter
	logger   zerolog.Logger
}

// Option configures the server
type Option func(*Server)

// WithRateLimiter limits requests under /api/v1
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new API server
func NewServer(config *Config, store Store, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: config,
		router: gin.New(),
		store:  store,
		logger: logger.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.matcher = supplier.NewMatcher(store, supplier.WithLogger(s.logger))
	s.poster = closure.NewPoster(store, closure.WithLogger(s.logger))

	pipelineOpts := []processor.Option{
		processor.WithSupplierMatcher(s.matcher),
		processor.WithLogger(s.logger),
	}
	if config.AutoCreateSuppliers {
		pipelineOpts = append(pipelineOpts, processor.WithAutoCreateSuppliers(config.DefaultAccountRef))
	}
	s.pipeline = processor.NewPipeline(pipelineOpts...)

	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	if s.limiter != nil {
		v1.Use(ratelimit.Middleware(s.limiter))
	}
	if s.config.MaxUploadBytes > 0 {
		v1.Use(limitBody(s.config.MaxUploadBytes))
	}
	{
		v1.POST("/invoices/parse", s.handleParse)
		v1.POST("/invoices/validate", s.handleValidate)
		v1.POST("/invoices/import", s.handleImport)

		v1.POST("/suppliers", s.handleCreateSupplier)
		v1.GET("/suppliers/:id", s.handleGetSupplier)

		v1.POST("/closures/totals", s.handleClosureTotals)
		v1.POST("/closures/post", s.handlePostClosure)
		v1.GET("/closures/:id/entries", s.handleListEntries)
		v1.DELETE("/closures/:id/entries", s.handleReverseClosure)
	}
}

// Run starts the HTTP server and shuts it down gracefully when ctx ends
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.config.Address).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
