// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/claim"
	"shareaplate_backend/internal/coach"
	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/goal"
	"shareaplate_backend/internal/jobs"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/matching"
	"shareaplate_backend/internal/middleware"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	platformElasticsearch "shareaplate_backend/internal/platform/elasticsearch"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/recommendation"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Profile        *profile.Handler
	Listing        *listing.Handler
	Claim          *claim.Handler
	Goal           *goal.Handler
	Outcome        *outcome.Handler
	Coach          *coach.Handler
	Matching       *matching.Handler
	Recommendation *recommendation.Handler
	Notification   *notification.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger
	esClient   *platformElasticsearch.ESClientWrapper
	expiryJob  *jobs.OutcomeExpiryJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	profiles middleware.ProfileResolver,
	handlers Handlers,
	expiryJob *jobs.OutcomeExpiryJob,
	esClient *platformElasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	if err := common.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 || corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(verifier, profiles, logger.Named("AuthMiddleware"))
	donorMW := middleware.RoleAuthMiddleware(common.RoleDonor)
	recipientMW := middleware.RoleAuthMiddleware(common.RoleRecipient)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Share-a-Plate API is healthy!"})
	})

	v1 := router.Group("/api/v1")
	handlers.Profile.RegisterRoutes(v1, authMW)
	handlers.Listing.RegisterRoutes(v1, authMW, donorMW)
	handlers.Claim.RegisterRoutes(v1, authMW, donorMW, recipientMW)
	handlers.Goal.RegisterRoutes(v1, authMW)
	handlers.Outcome.RegisterRoutes(v1, authMW)
	handlers.Coach.RegisterRoutes(v1, authMW)
	handlers.Matching.RegisterRoutes(v1, authMW, donorMW)
	handlers.Recommendation.RegisterRoutes(v1, authMW, donorMW, recipientMW)
	handlers.Notification.RegisterRoutes(v1, authMW)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		esClient:   esClient,
		expiryJob:  expiryJob,
	}, nil
}

// Router exposes the configured engine.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start prepares the search index, schedules background jobs and serves HTTP
// until Shutdown is called.
func (s *Server) Start() error {
	if s.esClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := platformElasticsearch.CreateFoodListingsIndexIfNotExists(ctx, s.esClient, s.logger); err != nil {
			s.logger.Error("Failed to create Elasticsearch food listings index", zap.Error(err))
		}
		cancel()
	} else {
		s.logger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	if s.expiryJob != nil {
		if err := s.expiryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start outcome expiry job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.expiryJob != nil {
		s.expiryJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
