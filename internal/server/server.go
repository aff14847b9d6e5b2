package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pos-billing/internal/config"
	"pos-billing/internal/database"
	custommiddleware "pos-billing/internal/middleware"
	"pos-billing/internal/repository"
	"pos-billing/internal/service"
	"pos-billing/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *database.Service
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"database": db.Health(),
		})
	})

	pool := db.DB()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	refreshTokenRepo := repository.NewRefreshTokenRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)
	txManager := repository.NewTxManager(pool)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	productService := service.NewProductService(productRepo, logger)
	invoiceService := service.NewInvoiceService(txManager, productRepo, invoiceRepo, userRepo, logger)
	reportService := service.NewReportService(invoiceRepo)

	// Handlers
	userHandler := transport.NewUserHandler(userService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	invoiceHandler := transport.NewInvoiceHandler(invoiceService, logger)
	reportHandler := transport.NewReportHandler(reportService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	userHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	invoiceHandler.RegisterRoutes(router, authMiddleware)
	reportHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
