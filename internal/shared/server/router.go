package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsort-backend/internal/shared/config"
	"docsort-backend/internal/shared/metrics"
	"docsort-backend/internal/shared/server/middleware"
	"docsort-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to a router group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// HealthChecker reports whether backing services are reachable.
type HealthChecker interface {
	Status(ctx context.Context) (map[string]any, bool)
}

// RouterDeps lists the handlers and collaborators wired into the router.
type RouterDeps struct {
	Config   config.Config
	Verifier middleware.TokenVerifier
	Health   HealthChecker
	// Public handlers are reachable without a token (signup, login, OAuth).
	Public []RouteRegistrar
	// Protected handlers require a bearer token.
	Protected []RouteRegistrar
	Limiter   *middleware.RateLimiter
}

const (
	rateGroupAuth    = "AUTH"
	rateGroupDefault = "DEFAULT"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		payload, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, payload)
	})
	r.GET("/metrics", metrics.Handler())

	rules := map[string]middleware.RateLimitRule{
		rateGroupAuth:    {Rate: deps.Config.AuthRateLimitRPS, Burst: deps.Config.AuthRateLimitBurst},
		rateGroupDefault: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil)
	}

	public := r.Group("/")
	public.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateGroupAuth,
		Limiter:      limiter,
	}))
	for _, h := range deps.Public {
		if h != nil {
			h.RegisterRoutes(public)
		}
	}

	protected := r.Group("/")
	protected.Use(
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rules,
			DefaultGroup: rateGroupDefault,
			Limiter:      limiter,
		}),
	)
	for _, h := range deps.Protected {
		if h != nil {
			h.RegisterRoutes(protected)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
