package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-movement/internal/pkg/live/application/usecase"
	repository "go-movement/internal/pkg/live/persistence/repository/port"
)

// GetActivitiesController serves the activity snapshot endpoint
// (one controller per endpoint).
type GetActivitiesController struct {
	UC *usecase.SnapshotActivityUseCase
}

func NewGetActivitiesController(repo repository.MovementRepository) *GetActivitiesController {
	return &GetActivitiesController{UC: usecase.NewSnapshotActivityUseCase(repo)}
}

// Handle returns a gin handler serving GET /movements/:movementId/activities.
func (h *GetActivitiesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		movementID := c.Param("movementId")
		if movementID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "movementId is required"})
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		activities, err := h.UC.Execute(ctx, usecase.SnapshotActivityInput{
			MovementID: movementID,
			Limit:      limit,
		})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrMovementNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "movement not found"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activities"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"activities": activities})
	}
}
