package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-movement/internal/infrastructure/identity"
	"go-movement/internal/infrastructure/realtime"
	httpHandler "go-movement/internal/pkg/live/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, gateway *identity.Gateway, registry *realtime.RoomRegistry) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, gateway, registry)
}
