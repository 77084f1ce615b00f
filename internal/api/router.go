// Package api exposes the day service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/service"
)

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	Days        *service.Days
	Verifier    auth.Verifier
	Log         *logger.Logger
	CORSOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), RequestLog(log))
	if c := corsMiddleware(cfg.CORSOrigins); c != nil {
		r.Use(c)
	}

	r.NoMethod(func(c *gin.Context) {
		respondMessage(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, "Not Found")
	})

	h := &handlers{days: cfg.Days, log: log.With("component", "api")}

	r.GET("/healthz", h.health)

	authed := r.Group("/", RequireAuth(cfg.Verifier, log))
	authed.POST("/resolve-day", h.resolveDay)
	authed.GET("/goals", h.listGoals)
	authed.POST("/goals", h.addGoal)
	authed.POST("/goals/:id/toggle", h.toggleGoal)
	authed.GET("/stats", h.stats)
	authed.GET("/history", h.history)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
