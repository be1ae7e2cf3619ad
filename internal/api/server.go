package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/audit"
	"github.com/ajitpratap0/clinicalnlp/internal/metrics"
	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
	"github.com/ajitpratap0/clinicalnlp/internal/reports"
)

// DefaultMaxBodyBytes caps inbound request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// NLPGateway is the part of the NLP Cloud gateway the handlers use
type NLPGateway interface {
	CheckGrammar(ctx context.Context, note nlpcloud.ClinicalNote) (*nlpcloud.GrammarResult, error)
	ExtractEntities(ctx context.Context, note nlpcloud.ClinicalNote) (*nlpcloud.EntitiesResult, error)
	Summarize(ctx context.Context, note nlpcloud.ClinicalNote) (*nlpcloud.SummaryResult, error)
	ExtractKeywords(ctx context.Context, note nlpcloud.ClinicalNote) (*nlpcloud.KeywordsResult, error)
	Classify(ctx context.Context, text string, labels []string) (*nlpcloud.ClassificationResult, error)
}

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// Server represents the REST API server
type Server struct {
	router       *gin.Engine
	gateway      NLPGateway
	reports      reports.Store
	health       HealthCheck
	audit        *audit.Logger
	maxBodyBytes int64
	addr         string
	server       *http.Server
}

// Config contains server configuration
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	MaxBodyBytes   int64
	Gateway        NLPGateway
	Reports        reports.Store // defaults to an in-memory store
	Health         HealthCheck   // optional, e.g. a database ping
	Audit          *audit.Logger // optional access audit trail
}

// NewServer creates a new API server
func NewServer(config Config) *Server {
	// Set Gin to release mode for production
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	registerJSONFieldNames()

	store := config.Reports
	if store == nil {
		store = reports.NewMemoryStore()
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	router := gin.New()

	// Add middleware
	router.Use(RequestIDMiddleware())
	router.Use(gin.CustomRecovery(recoverWithEnvelope))
	router.Use(LoggerMiddleware())
	router.Use(metrics.GinMiddleware())
	router.Use(DisclaimerMiddleware())
	router.Use(cors.New(corsConfig(config.AllowedOrigins)))

	server := &Server{
		router:       router,
		gateway:      config.Gateway,
		reports:      store,
		health:       config.Health,
		audit:        config.Audit,
		maxBodyBytes: maxBody,
		addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// corsConfig allows every origin when the list is empty or contains "*".
// Credentials are only allowed for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader, DisclaimerHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping API server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
	}

	return nil
}
