package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/contact"
	"github.com/accelrix/intern-service/internal/interns"
	"github.com/accelrix/intern-service/internal/ratelimit"
	"github.com/accelrix/intern-service/internal/storage"
)

// Server handles HTTP requests
type Server struct {
	config   config.ServerConfig
	storage  storage.Storage
	interns  *interns.Service
	contacts *contact.Service
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server. limiter may be nil to disable rate limiting.
func NewServer(cfg config.ServerConfig, store storage.Storage, internService *interns.Service, contactService *contact.Service, limiter *ratelimit.Limiter, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Mode)

	s := &Server{
		config:   cfg,
		storage:  store,
		interns:  internService,
		contacts: contactService,
		logger:   logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(observeDuration())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept", "Origin", cfg.APIKeyHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", s.handleRoot)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	api.Use(s.requireAPIKey())
	{
		api.GET("/health", s.handleHealth)
		api.POST("/contact", s.handleContact)
		api.POST("/interns/bulk-upsert", s.handleBulkUpsert)
		api.GET("/interns/verify", s.handleVerify)
	}

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
