package router

import (
	"fmt"
	"io/fs"
	"net/http"

	"agreepoll/internal/config"
	"agreepoll/internal/handlers"
	"agreepoll/internal/middleware"
	"agreepoll/web"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// New builds the engine with every route wired to store.
func New(cfg config.Config, store handlers.VoteStore) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/admin/export"})))

	renderer, err := loadTemplates(web.FS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	r.HTMLRender = renderer

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}
	r.StaticFS("/public", http.FS(static))

	RegisterRoutes(r, cfg, store)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, cfg config.Config, store handlers.VoteStore) {
	pollHandler := handlers.NewPollHandler(store, cfg.PollTitle, cfg.PollBody)
	adminHandler := handlers.NewAdminHandler(store, cfg.PollTitle, cfg.RecentLimit)
	healthHandler := handlers.NewHealthHandler(store)

	// public
	r.GET("/", pollHandler.Home)           // voting page
	r.POST("/vote", pollHandler.Vote)      // record a vote, then redirect
	r.GET("/thanks", pollHandler.Thanks)   // acknowledgment
	r.GET("/healthz", healthHandler.Check) // store reachability

	// shared-secret gated
	admin := r.Group("/admin")
	admin.Use(middleware.AdminRequired(cfg.AdminKey))
	{
		admin.GET("", adminHandler.Dashboard)     // aggregates + recent votes
		admin.GET("/export", adminHandler.Export) // full CSV dump
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found")
	})
}
