package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/database"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/sirupsen/logrus"
)

// Health godoc
// @Summary Health check endpoint
// @Description Returns API health status and dependency information
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status information"
// @Failure 503 {object} map[string]interface{} "Dependency unavailable"
// @Router /health [get]
func Health(db *database.DB, tempDir string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dependencies := gin.H{}
		healthy := true

		if err := db.Ping(ctx); err != nil {
			logger.WithError(err).Error("mongo health check failed")
			dependencies["mongo"] = "unhealthy"
			healthy = false
		} else {
			dependencies["mongo"] = "ok"
		}

		usage, err := disk.UsageWithContext(ctx, tempDir)
		var diskUsedPercent float64
		if err != nil {
			logger.WithError(err).Warn("failed to read blob staging disk usage")
		} else {
			diskUsedPercent = usage.UsedPercent
		}

		status := gin.H{
			"status":            "ok",
			"timestamp":         time.Now().Format(time.RFC3339),
			"service":           "ilix",
			"dependencies":      dependencies,
			"disk_used_percent": diskUsedPercent,
		}

		if !healthy {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}
