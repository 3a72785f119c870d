package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/middleware"
	"restaurant-admin/services"
)

// RouterConfig holds the HTTP-only settings.
type RouterConfig struct {
	CORSOrigins []string
	// FrontendDir is served under /frontend when it exists.
	FrontendDir string
}

// NewRouter builds the engine with every route registered. Everything except
// login, health and metrics requires a valid session.
func NewRouter(app *services.App, hub *controllers.Hub, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(app.Log))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:9000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "token", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.FrontendDir != "" {
		if _, err := os.Stat(cfg.FrontendDir); err == nil {
			router.Static("/frontend", cfg.FrontendDir)
		}
	}
	router.NoRoute(func(c *gin.Context) {
		if cfg.FrontendDir != "" && strings.HasPrefix(c.Request.URL.Path, "/frontend") {
			c.File(filepath.Join(cfg.FrontendDir, "index.html"))
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		if !app.Store.Ready().IsReady() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "orders": app.Orders.State().String()})
	})
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	UserRoutes(router, app)

	authorized := router.Group("/", middleware.Authentication(app))
	StaffRoutes(authorized, app)
	InventoryRoutes(authorized, app)
	MenuRoutes(authorized, app)
	OrderRoutes(authorized, app, hub)
	InvoiceRoutes(authorized, app)

	return router
}
