// Package wire defines the JSON frames exchanged over the live websocket.
// Both the server presentation layer and the client subscription manager
// speak this contract, decoupled from any specific transport framing.
package wire

import (
	live "go-movement/internal/pkg/live/application/domain"
)

// Server -> client frame types.
const (
	EventConnected       = "connected"
	EventJoined          = "joined"
	EventLeft            = "left"
	EventError           = "error"
	EventUserJoined      = "user:joined"
	EventUserLeft        = "user:left"
	EventPresenceState   = "presence:state"
	EventActivityNew     = "activity:new"
	EventMovementUpdated = "movement:updated"
)

// Client -> server frame types.
const (
	EventJoinRoom  = "join:room"
	EventLeaveRoom = "leave:room"
)

// Inbound is a client -> server frame.
type Inbound struct {
	Type       string `json:"type"`
	MovementID string `json:"movementId,omitempty"`
}

// Ack acknowledges a handshake or a membership operation.
type Ack struct {
	Type       string         `json:"type"`
	MovementID string         `json:"movementId,omitempty"`
	Identity   *live.Identity `json:"identity,omitempty"`
}

// Error reports a rejected frame. The connection survives.
type Error struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// PresenceDelta carries a user:joined or user:left signal to current members.
type PresenceDelta struct {
	Type       string        `json:"type"`
	MovementID string        `json:"movementId"`
	Viewer     live.Identity `json:"viewer"`
	Count      int           `json:"count"`
}

// PresenceState seeds a joiner with the room's full viewer list.
type PresenceState struct {
	Type       string          `json:"type"`
	MovementID string          `json:"movementId"`
	Viewers    []live.Identity `json:"viewers"`
	Count      int             `json:"count"`
}

// ActivityNew pushes one freshly produced activity event to room members.
type ActivityNew struct {
	Type       string        `json:"type"`
	MovementID string        `json:"movementId"`
	Activity   live.Activity `json:"activity"`
}

// MovementUpdated is the coarse global refresh signal for list-level views.
type MovementUpdated struct {
	Type       string `json:"type"`
	MovementID string `json:"movementId"`
}

// Envelope carries a peeked frame type before full decoding.
type Envelope struct {
	Type string `json:"type"`
}
