// Package http serves the read-side query API. The pipeline itself is
// driven by workflows and the CLI; this surface exists for search consumers.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/application/search"
	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"github.com/alchemorsel/pipeline/pkg/healthcheck"
)

// Server hosts the query endpoints.
type Server struct {
	engine *gin.Engine
	port   int
	logger *zap.Logger
}

type searchRequest struct {
	Query       string   `json:"query" binding:"required"`
	Mode        string   `json:"mode"`
	Difficulty  string   `json:"difficulty"`
	CuisineType string   `json:"cuisine_type"`
	MealType    string   `json:"meal_type"`
	DietaryTags []string `json:"dietary_tags"`
	MaxMinutes  int      `json:"max_minutes"`
	From        int      `json:"from"`
	Size        int      `json:"size"`
}

// NewServer builds the router.
func NewServer(cfg *config.Config, searchSvc *search.Service, store outbound.RecipeStore, checker *healthcheck.Checker, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		report := checker.Run(c.Request.Context())
		status := http.StatusOK
		if report.Status != healthcheck.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})

	api := engine.Group("/api")
	api.POST("/recipes/_search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		mode := outbound.SearchMode(req.Mode)
		if mode == "" {
			mode = outbound.SearchModeText
		}

		hits, err := searchSvc.Query(c.Request.Context(), outbound.SearchQuery{
			Text: req.Query,
			Mode: mode,
			Filters: outbound.SearchFilters{
				Difficulty:  req.Difficulty,
				CuisineType: req.CuisineType,
				MealType:    req.MealType,
				DietaryTags: req.DietaryTags,
				MaxMinutes:  req.MaxMinutes,
			},
			From: req.From,
			Size: req.Size,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"hits": hits, "total": len(hits)})
	})

	api.GET("/recipes/:identifier", func(c *gin.Context) {
		r, _, err := store.GetByIdentifier(c.Request.Context(), c.Param("identifier"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	})

	return &Server{
		engine: engine,
		port:   cfg.App.APIPort,
		logger: logger.Named("api"),
	}
}

func writeError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.StatusCode(), gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Query API listening", zap.String("addr", addr))
	server := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return server.ListenAndServe()
}
