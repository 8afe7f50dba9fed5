package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-movement/internal/infrastructure/identity"
	"go-movement/internal/infrastructure/realtime"
	"go-movement/internal/pkg/live/wire"
)

const defaultReadTimeout = 60 * time.Second

// LiveSocketController handles the websocket endpoint for live presence and
// activity traffic. Frames are processed one at a time per connection, so
// membership operations from one client are naturally ordered.
type LiveSocketController struct {
	gateway  *identity.Gateway
	registry *realtime.RoomRegistry
}

func NewLiveSocketController(gateway *identity.Gateway, registry *realtime.RoomRegistry) *LiveSocketController {
	return &LiveSocketController{gateway: gateway, registry: registry}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Anonymous viewing is a feature; origin policy belongs to the proxy.
		return true
	},
}

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects. A bad or missing credential never refuses the
// upgrade; the connection proceeds anonymously.
func (ctl *LiveSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		who := ctl.gateway.Authenticate(c.Request.Context(), c.Request)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing more to do.
			return
		}

		conn := realtime.NewConnection(who, ws)
		ctl.registry.Attach(conn)
		defer func() {
			ctl.registry.Disconnect(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ack := wire.Ack{Type: wire.EventConnected}
		if !who.Anonymous() {
			ack.Identity = &who
		}
		if payload, err := json.Marshal(ack); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				// Covers clean closes, abrupt drops and read timeouts alike;
				// the deferred Disconnect cascades the leaves either way.
				return
			}

			var frame wire.Inbound
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case wire.EventJoinRoom:
				ctl.handleJoin(conn, frame)
			case wire.EventLeaveRoom:
				ctl.handleLeave(conn, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *LiveSocketController) handleJoin(conn *realtime.Connection, frame wire.Inbound) {
	if frame.MovementID == "" {
		ctl.replyError(conn, "bad_request", "movementId is required")
		return
	}
	// Idempotent: re-joining an already joined room still acks.
	ctl.registry.Join(conn, frame.MovementID)
	ctl.ack(conn, wire.EventJoined, frame.MovementID)
}

func (ctl *LiveSocketController) handleLeave(conn *realtime.Connection, frame wire.Inbound) {
	if frame.MovementID == "" {
		ctl.replyError(conn, "bad_request", "movementId is required")
		return
	}
	ctl.registry.Leave(conn, frame.MovementID)
	ctl.ack(conn, wire.EventLeft, frame.MovementID)
}

func (ctl *LiveSocketController) ack(conn *realtime.Connection, event, movementID string) {
	if payload, err := json.Marshal(wire.Ack{Type: event, MovementID: movementID}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *LiveSocketController) replyError(conn *realtime.Connection, code string, message string) {
	if payload, err := json.Marshal(wire.Error{Type: wire.EventError, Code: code, Error: message}); err == nil {
		_ = conn.Send(payload)
	}
}
