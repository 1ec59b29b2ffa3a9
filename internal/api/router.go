package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/file"
	fileHttp "github.com/nekogravitycat/listing-backend/internal/file/http"
	"github.com/nekogravitycat/listing-backend/internal/listing"
	listingHttp "github.com/nekogravitycat/listing-backend/internal/listing/http"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/listing-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
	"github.com/nekogravitycat/listing-backend/internal/user"
	userHttp "github.com/nekogravitycat/listing-backend/internal/user/http"
)

// Config holds the dependencies and settings required to build the router.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	Logger   *zap.Logger
	Registry *prometheus.Registry

	UserService      user.Service
	ListingService   listing.Service
	ListingValidator *listing.Validator
	FileService      file.Service

	JWTManager *auth.JWTManager
	Sessions   auth.SessionStore // nil disables logout revocation
	Limiter    *ratelimit.Limiter

	UploadMaxBytes int64

	// HealthCheck reports whether backing services are reachable. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (logging, recovery, metrics, CORS, failure rendering)
// and registering routes for each module.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(1, 10)
	}

	request.UseJSONFieldNames()

	r := gin.New()
	httpMetrics := metrics.NewHTTP(registry)

	// Global Middleware:
	// - Ginzap: structured access log.
	// - RecoveryWithZap: last line of defence for panics outside wrapped actions.
	// - FailureHandler: renders every error forwarded by gates and actions.
	r.Use(
		ginzap.GinzapWithConfig(logger, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/healthz", "/metrics"},
		}),
		ginzap.RecoveryWithZap(logger, true),
		httpMetrics.Middleware(),
		cors.New(corsConfig(cfg.IsProduction, cfg.ProdOrigins)),
		FailureHandler(logger),
	)

	r.NoRoute(response.Wrap(func(c *gin.Context) error {
		return apperror.NotFound("route not found")
	}))

	r.GET("/healthz", response.Wrap(func(c *gin.Context) error {
		if cfg.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.HealthCheck(ctx); err != nil {
				return apperror.Wrap(err, http.StatusServiceUnavailable, "service unavailable")
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return nil
	}))
	r.GET("/metrics", httpMetrics.Handler())

	// authMiddleware: Validates the bearer token and its session.
	authMiddleware := auth.AuthRequired(cfg.JWTManager, cfg.Sessions)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager, cfg.Sessions)
	fileHandler := fileHttp.NewHandler(cfg.FileService, logger)
	listingHandler := listingHttp.NewHandler(cfg.ListingService, cfg.ListingValidator, cfg.UploadMaxBytes)

	imageUpload := fileHandler.SingleUpload(fileHttp.UploadConfig{
		FormFieldName: listingHttp.ImageField,
		MaxSizeBytes:  cfg.UploadMaxBytes,
		AllowedTypes:  file.ImageTypes,
		ResizeImage:   true,
	})

	userHttp.RegisterRoutes(r, userHandler, authMiddleware, limiter.Middleware())
	fileHttp.RegisterRoutes(r, fileHandler)
	listingHttp.RegisterRoutes(r, listingHandler, authMiddleware, imageUpload)

	return r
}

func corsConfig(isProduction bool, prodOrigins string) cors.Config {
	config := cors.DefaultConfig()
	if isProduction {
		var origins []string
		for _, o := range strings.Split(prodOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.AllowOrigins = origins
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8081", // Swagger
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}
