package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quickcourt/booking-backend/internal/database"
)

// HealthHandler reports process and database health
type HealthHandler struct {
	db      database.DB
	version string

	// migrationVersion is swapped in tests
	migrationVersion func(ctx context.Context, db database.DB) (int64, error)
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.DB, version string) *HealthHandler {
	return &HealthHandler{
		db:               db,
		version:          version,
		migrationVersion: database.MigrationVersion,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.db.Ping(); err != nil {
		dbStatus = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": dbStatus,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  dbStatus,
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	})
}

// Database handles GET /health/db
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	latency := time.Since(start)

	version, err := h.migrationVersion(c.Request.Context(), h.db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"ping_ms":           latency.Milliseconds(),
		"migration_version": version,
	})
}
