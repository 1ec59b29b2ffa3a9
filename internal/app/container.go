package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/api"
	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/file"
	"github.com/nekogravitycat/listing-backend/internal/listing"
	"github.com/nekogravitycat/listing-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/listing-backend/internal/pkg/storage"
	"github.com/nekogravitycat/listing-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger
	DBPool       *pgxpool.Pool
	Redis        redis.UniversalClient // nil disables session revocation
	Storage      storage.Storage
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	UploadMaxBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Registry   *prometheus.Registry
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var sessions auth.SessionStore
	if cfg.Redis != nil {
		sessions = auth.NewRedisSessionStore(cfg.Redis)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, cfg.Storage, logger)

	// Listing Module
	listingValidator := listing.NewValidator()
	listingRepo := listing.NewPgxRepository(cfg.DBPool)
	listingService := listing.NewService(listingRepo, fileService, listingValidator, logger)

	// API Router Config
	routerParams := api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           logger,
		Registry:         registry,
		UserService:      userService,
		ListingService:   listingService,
		ListingValidator: listingValidator,
		FileService:      fileService,
		JWTManager:       jwtManager,
		Sessions:         sessions,
		Limiter:          ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst),
		UploadMaxBytes:   cfg.UploadMaxBytes,
		HealthCheck:      cfg.DBPool.Ping,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Registry:   registry,
	}
}
