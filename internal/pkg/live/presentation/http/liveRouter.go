package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-movement/internal/infrastructure/identity"
	"go-movement/internal/infrastructure/realtime"
	"go-movement/internal/pkg/live/persistence/repository/adapter"
	"go-movement/internal/pkg/live/presentation/controller"
)

// RegisterRoutes registers live presence/activity endpoints under the given
// router group. It constructs per-endpoint controllers and binds them
// directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, gateway *identity.Gateway, registry *realtime.RoomRegistry) {
	repo := adapter.NewPgMovementRepository(pool)

	activitiesCtl := controller.NewGetActivitiesController(repo)
	socketCtl := controller.NewLiveSocketController(gateway, registry)

	// GET /api/v1/movements/:movementId/activities -> activity feed snapshot
	g.GET("/movements/:movementId/activities", activitiesCtl.Handle())

	// GET /api/v1/live/ws -> websocket endpoint for presence + live activity
	g.GET("/live/ws", socketCtl.Handle())
}
