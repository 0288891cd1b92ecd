package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"warmpath/internal/graph"
	"warmpath/internal/pathfinder"
	"warmpath/pkg/config"
	apperrors "warmpath/pkg/errors"
)

// newRouter wires the HTTP API over the graph repository and path finder
func newRouter(cfg *config.Config, log *zap.Logger, repo *graph.Repository, finder *pathfinder.Finder, identity graph.Identity) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Best introduction path to a prospect
		api.GET("/path/:email", func(c *gin.Context) {
			if len(identity.Emails) == 0 {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "MY_EMAILS is not configured"})
				return
			}

			ctx := c.Request.Context()
			domain := c.Query("domain")

			if c.Query("all") == "true" {
				paths, err := finder.FindAllPaths(ctx, identity, c.Param("email"), domain)
				if err != nil {
					respondError(c, log, err, "Failed to find paths")
					return
				}
				c.JSON(http.StatusOK, gin.H{"paths": paths})
				return
			}

			path, err := finder.FindPath(ctx, identity, c.Param("email"), domain)
			if err != nil {
				respondError(c, log, err, "Failed to find path")
				return
			}
			c.JSON(http.StatusOK, path)
		})

		// Person lookup by primary or alternate email
		api.GET("/person/:email", func(c *gin.Context) {
			person, err := repo.FindPersonByEmail(c.Request.Context(), c.Param("email"))
			if err != nil {
				respondError(c, log, err, "Failed to fetch person")
				return
			}
			c.JSON(http.StatusOK, person)
		})

		// A person's outgoing relationships, strongest first
		api.GET("/person/:email/knows", func(c *gin.Context) {
			ctx := c.Request.Context()

			person, err := repo.FindPersonByEmail(ctx, c.Param("email"))
			if err != nil {
				respondError(c, log, err, "Failed to fetch person")
				return
			}

			edges, err := repo.ListKnowsFrom(ctx, person.Email)
			if err != nil {
				respondError(c, log, err, "Failed to list relationships")
				return
			}
			c.JSON(http.StatusOK, gin.H{"email": person.Email, "knows": edges})
		})

		// Aggregate graph counts
		api.GET("/stats", func(c *gin.Context) {
			stats, err := repo.Stats(c.Request.Context())
			if err != nil {
				respondError(c, log, err, "Failed to fetch stats")
				return
			}
			c.JSON(http.StatusOK, stats)
		})
	}

	return router
}

// respondError maps application errors onto HTTP statuses
func respondError(c *gin.Context, log *zap.Logger, err error, msg string) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
