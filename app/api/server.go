package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "News Crawl",
			"version":     handler.version,
			"description": "RSS news crawler with content extraction, summaries and relevance scoring",
			"endpoints": gin.H{
				"health":    "/health",
				"tasks":     "/tasks",
				"articles":  "/articles",
				"sources":   "/rss-sources",
				"summaries": "/summary/stats",
				"events":    "/events",
			},
			"api_status": gin.H{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API endpoints require authentication")
	} else {
		slog.Warn("API endpoints are open (API_ACCESS_KEY not set)")
	}

	api.POST("/tasks", handler.CreateTask)
	api.GET("/tasks", handler.ListTasks)
	api.GET("/tasks/:id", handler.GetTask)
	api.DELETE("/tasks/:id", handler.DeleteTask)
	api.POST("/tasks/:id/retry", handler.RetryTask)
	api.GET("/tasks/:id/feed", handler.GetTaskFeed)

	api.GET("/articles", handler.ListArticles)
	api.GET("/articles/:id", handler.GetArticle)
	api.POST("/articles/:id/regenerate-summary", handler.RegenerateArticleSummary)

	api.GET("/rss-sources", handler.ListSources)
	api.POST("/rss-sources", handler.CreateSource)
	api.PUT("/rss-sources/:id", handler.UpdateSource)
	api.DELETE("/rss-sources/:id", handler.DeleteSource)

	api.GET("/summary/stats", handler.GetSummaryStats)
	api.POST("/summary/regenerate", handler.RegenerateSummaries)
	api.PUT("/summary/strategy", handler.SetSummaryStrategy)

	api.GET("/events", handler.StreamEvents)
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
