package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/cookclip/cookclip-backend/internal/handlers"
	"github.com/cookclip/cookclip-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	ExtractHandler *handlers.ExtractHandler
	RecipeHandler  *handlers.RecipeHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("cookclip-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/extract", cfg.ExtractHandler.Extract)
		api.POST("/extract/ask", cfg.ExtractHandler.Ask)
		api.POST("/auth/signup", cfg.AuthHandler.Signup)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.GET("/auth/google/url", cfg.AuthHandler.GoogleURL)
		api.POST("/auth/google", cfg.AuthHandler.GoogleLogin)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.GET("/auth/me", cfg.AuthHandler.Me)
	// Recipes. by-url is registered before :id so gin does not treat
	// "by-url" as a recipe id.
	protected.GET("/recipes/by-url", cfg.RecipeHandler.GetByURL)
	protected.POST("/recipes", cfg.RecipeHandler.Save)
	protected.GET("/recipes", cfg.RecipeHandler.List)
	protected.GET("/recipes/:id", cfg.RecipeHandler.Get)
	protected.DELETE("/recipes/:id", cfg.RecipeHandler.Delete)
	protected.POST("/recipes/:id/ask", cfg.RecipeHandler.Ask)

	return router
}

func corsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS"))
	if raw == "" {
		return []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
