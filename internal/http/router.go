// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-market-backend/internal/config"
	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/http/handlers"
	"github.com/tbourn/go-market-backend/internal/http/middleware"
	"github.com/tbourn/go-market-backend/internal/repo"
	"github.com/tbourn/go-market-backend/internal/services"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, error) {
	return repo.CreateUser(ctx, db, u)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

func (userRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

func (userRepoShim) UpdateUser(ctx context.Context, db *gorm.DB, id uint, changes domain.User) (*domain.User, error) {
	return repo.UpdateUser(ctx, db, id, changes)
}

func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteUser(ctx, db, id)
}

// assetRepoShim adapts the repository free functions to services.AssetRepo.
type assetRepoShim struct{}

func (assetRepoShim) CreateAsset(ctx context.Context, db *gorm.DB, a *domain.Asset) (*domain.Asset, error) {
	return repo.CreateAsset(ctx, db, a)
}

func (assetRepoShim) GetAsset(ctx context.Context, db *gorm.DB, id uint) (*domain.Asset, error) {
	return repo.GetAsset(ctx, db, id)
}

func (assetRepoShim) CountAssets(ctx context.Context, db *gorm.DB, nameFilter string) (int64, error) {
	return repo.CountAssets(ctx, db, nameFilter)
}

func (assetRepoShim) ListAssetsPage(ctx context.Context, db *gorm.DB, nameFilter string, offset, limit int) ([]domain.Asset, error) {
	return repo.ListAssetsPage(ctx, db, nameFilter, offset, limit)
}

func (assetRepoShim) UpdateAsset(ctx context.Context, db *gorm.DB, id uint, changes domain.Asset) (*domain.Asset, error) {
	return repo.UpdateAsset(ctx, db, id, changes)
}

func (assetRepoShim) DeleteAsset(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteAsset(ctx, db, id)
}

func (assetRepoShim) PurchaseAsset(ctx context.Context, db *gorm.DB, assetID uint, qty int) error {
	return repo.PurchaseAsset(ctx, db, assetID, qty)
}

// orderRepoShim adapts the repository free functions to services.OrderRepo.
type orderRepoShim struct{}

func (orderRepoShim) CreateOrder(ctx context.Context, db *gorm.DB, userID uint, lines []repo.OrderLine) (*domain.Order, error) {
	return repo.CreateOrder(ctx, db, userID, lines)
}

func (orderRepoShim) GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	return repo.GetOrder(ctx, db, id)
}

func (orderRepoShim) CountOrdersByUser(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	return repo.CountOrdersByUser(ctx, db, userID)
}

func (orderRepoShim) ListOrdersByUser(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Order, error) {
	return repo.ListOrdersByUser(ctx, db, userID, offset, limit)
}

func (orderRepoShim) UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, status string) error {
	return repo.UpdateOrderStatus(ctx, db, id, status)
}

func (orderRepoShim) DeleteOrder(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteOrder(ctx, db, id)
}

// idemRepoShim adapts the repository free functions to services.IdempotencyRepo.
type idemRepoShim struct{}

func (idemRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, userID, key, now)
}

func (idemRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, userID uint, key string, orderID uint, status string, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, userID, key, orderID, status, ttl)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (emails show up in user routes)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress JSON responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health: reports whether the connection pool can reach the
	// database within a short deadline.
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	// Dependency injection: services ← repo/db
	userSvc := services.NewUserService(db, userRepoShim{})
	catalogSvc := services.NewCatalogService(db, assetRepoShim{})
	orderSvc := services.NewOrderService(db, orderRepoShim{}, idemRepoShim{})
	orderSvc.IdempotencyTTL = cfg.IdempotencyTTL

	h := handlers.New(userSvc, catalogSvc, orderSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Users
		api.POST("/users", h.CreateUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)

		// Assets
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets", h.ListAssets)
		api.GET("/assets/:id", h.GetAsset)
		api.PUT("/assets/:id", h.UpdateAsset)
		api.DELETE("/assets/:id", h.DeleteAsset)
		api.POST("/assets/:id/buy", h.PurchaseAsset)

		// Orders
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.PUT("/orders/:id/status", h.UpdateOrderStatus)
		api.DELETE("/orders/:id", h.DeleteOrder)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
