package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	live "go-movement/internal/pkg/live/application/domain"
	"go-movement/internal/pkg/live/wire"
)

// RoomRegistry tracks active connections and their room memberships. It is
// constructed once at process start and passed explicitly into every
// connection handler; there is no ambient global instance.
//
// A single mutex serializes all membership mutations, so a join or leave,
// the count read and the presence delta fan-out built from them are atomic:
// members never observe a stale count. Deltas go through Connection.Send,
// which never blocks, so no I/O happens under the lock.
type RoomRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Connection            // connection ID -> connection
	rooms    map[string]map[string]*Connection // room key -> connection ID -> connection
	joined   map[string]map[string]struct{}    // connection ID -> set of room keys
	log      zerolog.Logger
}

// NewRoomRegistry constructs an empty registry.
func NewRoomRegistry(log zerolog.Logger) *RoomRegistry {
	return &RoomRegistry{
		sessions: make(map[string]*Connection),
		rooms:    make(map[string]map[string]*Connection),
		joined:   make(map[string]map[string]struct{}),
		log:      log,
	}
}

// Attach registers a freshly authenticated connection. Every attached
// connection is a global broadcast target, whether or not it joins any room.
func (r *RoomRegistry) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.joined[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()
}

// Join adds the connection to the movement's room, creating the room lazily.
// Joining a room the connection is already in is a no-op. Other current
// members receive a user:joined delta carrying the fresh count; the joiner
// receives the room's full viewer list so it can seed local presence.
func (r *RoomRegistry) Join(conn *Connection, movementID string) bool {
	key := live.RoomKey(movementID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, tracked := r.sessions[conn.ID]; !tracked {
		return false
	}
	room := r.rooms[key]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[key] = room
	}
	if _, member := room[conn.ID]; member {
		return false
	}
	room[conn.ID] = conn
	r.joined[conn.ID][key] = struct{}{}

	count := len(room)
	delta, err := json.Marshal(wire.PresenceDelta{
		Type:       wire.EventUserJoined,
		MovementID: movementID,
		Viewer:     conn.Identity,
		Count:      count,
	})
	if err == nil {
		for id, member := range room {
			if id == conn.ID {
				continue
			}
			if sendErr := member.Send(delta); sendErr != nil {
				r.log.Debug().Err(sendErr).Str("room", key).Msg("presence delta dropped")
			}
		}
	}

	viewers := make([]live.Identity, 0, count)
	for _, member := range room {
		viewers = append(viewers, member.Identity)
	}
	state, err := json.Marshal(wire.PresenceState{
		Type:       wire.EventPresenceState,
		MovementID: movementID,
		Viewers:    viewers,
		Count:      count,
	})
	if err == nil {
		_ = conn.Send(state)
	}
	return true
}

// Leave removes the connection from the movement's room. Leaving a room the
// connection is not in is a no-op. Remaining members receive a user:left
// delta with the decremented count.
func (r *RoomRegistry) Leave(conn *Connection, movementID string) {
	r.mu.Lock()
	r.leaveLocked(conn, movementID)
	r.mu.Unlock()
}

// Disconnect cascades a leave for every room the connection belongs to, then
// discards the connection. Called when the transport drops, with or without
// explicit leaves beforehand.
func (r *RoomRegistry) Disconnect(conn *Connection) {
	r.mu.Lock()
	for key := range r.joined[conn.ID] {
		r.leaveLocked(conn, live.MovementIDFromRoomKey(key))
	}
	delete(r.joined, conn.ID)
	delete(r.sessions, conn.ID)
	r.mu.Unlock()
}

// Count reports the room's current member count. Unknown rooms count zero;
// an empty room and a never-created one are indistinguishable.
func (r *RoomRegistry) Count(movementID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[live.RoomKey(movementID)])
}

// Viewers returns the identities currently in the room, in no particular order.
func (r *RoomRegistry) Viewers(movementID string) []live.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[live.RoomKey(movementID)]
	viewers := make([]live.Identity, 0, len(room))
	for _, member := range room {
		viewers = append(viewers, member.Identity)
	}
	return viewers
}

// members returns a snapshot of the room's connections for fan-out.
func (r *RoomRegistry) members(roomKey string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[roomKey]
	out := make([]*Connection, 0, len(room))
	for _, member := range room {
		out = append(out, member)
	}
	return out
}

// all returns a snapshot of every attached connection.
func (r *RoomRegistry) all() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		out = append(out, conn)
	}
	return out
}

func (r *RoomRegistry) leaveLocked(conn *Connection, movementID string) {
	key := live.RoomKey(movementID)
	room := r.rooms[key]
	if room == nil {
		return
	}
	if _, member := room[conn.ID]; !member {
		return
	}
	delete(room, conn.ID)
	if memberships, ok := r.joined[conn.ID]; ok {
		delete(memberships, key)
	}
	if len(room) == 0 {
		delete(r.rooms, key)
		return
	}

	delta, err := json.Marshal(wire.PresenceDelta{
		Type:       wire.EventUserLeft,
		MovementID: movementID,
		Viewer:     conn.Identity,
		Count:      len(room),
	})
	if err != nil {
		return
	}
	for _, member := range room {
		if sendErr := member.Send(delta); sendErr != nil {
			r.log.Debug().Err(sendErr).Str("room", key).Msg("presence delta dropped")
		}
	}
}
