package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/dto"
)

// Pinger reports whether the review store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponseDTO
// @Failure      503  {object}  dto.HealthResponseDTO
// @Router       /health [get]
func HealthHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.HealthResponseDTO{Status: "degraded", Store: "down", Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.HealthResponseDTO{Status: "ok", Store: "up"})
	}
}
