package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/ehr-booking/internal/handler"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
)

// Handler registers its routes on the public and the authenticated group.
type Handler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	h        *handler.Handler
	handlers []Handler
}

type RouterConfig struct {
	RateLimit    rate.Limit
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	Timeout      time.Duration
	MaxBodyBytes int64
	HSTS         bool
	Metrics      *metrics.Metrics
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		h:        h,
		handlers: handlers,
	}

	if config.Timeout <= 0 {
		config.Timeout = middleware.DefaultTimeoutConfig().Duration
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorLogger(),
		middleware.Metrics(config.Metrics),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTS = config.HSTS
	engine.Use(
		middleware.SecurityHeaders(security),
		middleware.BodyLimit(config.MaxBodyBytes),
	)

	return r
}

func (r *Router) Setup() {
	r.setupHealthCheck(r.engine.Group(""))

	api := r.engine.Group("/api/v1")

	public := api.Group("")
	public.Use(r.auth.Optional())

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	for _, h := range r.handlers {
		h.RegisterRoutes(public, protected)
	}
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
	}
	rg.GET("/metrics", r.h.MetricsHandler())
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
