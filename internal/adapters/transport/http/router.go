package http

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gophertalk/feed-service/internal/adapters/transport/http/middleware"
	"github.com/gophertalk/feed-service/internal/domain/auth/jwt"
)

type RouterDeps struct {
	Handler  *Handler
	Verifier jwt.AccessVerifier
	Logger   *zap.Logger

	AllowedOrigins   []string
	AllowCredentials bool

	// optional
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
	Ping     func(context.Context) error
}

func NewRouter(d RouterDeps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	if d.Metrics != nil {
		router.Use(d.Metrics.Handler())
	}
	if c, ok := corsConfig(d.AllowedOrigins, d.AllowCredentials); ok {
		router.Use(cors.New(c))
	}

	router.GET("/health", health(d.Ping))
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	h := d.Handler
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}

	posts := router.Group("/posts", middleware.RequireAuth(d.Verifier))
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/view", h.ViewPost)
		posts.POST("/:id/like", h.LikePost)
		posts.DELETE("/:id/like", h.DislikePost)
	}

	return router
}

// corsConfig reports false when no origin is allowed; cors.New panics on
// an empty origin list.
func corsConfig(origins []string, credentials bool) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
			middleware.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: credentials,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c, true
}

func health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	}
}
