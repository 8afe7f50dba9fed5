// Package client implements the consuming side of the live protocol: it
// joins and leaves movement rooms as navigation changes and merges presence
// and activity deltas into local view state for rendering layers.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	live "go-movement/internal/pkg/live/application/domain"
	"go-movement/internal/pkg/live/wire"
)

const handshakeTimeout = 10 * time.Second

// roomState is the local view state for one joined movement.
type roomState struct {
	presence *live.PresenceView
	feed     *live.Feed
}

// Manager owns one live connection and the per-room state derived from it.
// A reconnecting consumer builds a brand-new Manager and re-joins every room
// it cares about; there is no session resumption.
type Manager struct {
	ws      *websocket.Conn
	httpc   *http.Client
	apiURL  string
	self    live.Identity
	feedCap int
	log     zerolog.Logger

	mu      sync.Mutex
	rooms   map[string]*roomState
	writeMu sync.Mutex
	done    chan struct{}
	closed  sync.Once

	onMovementUpdated func(movementID string)
}

// SetOnMovementUpdated registers a callback for global list-refresh signals.
func (m *Manager) SetOnMovementUpdated(fn func(movementID string)) {
	m.mu.Lock()
	m.onMovementUpdated = fn
	m.mu.Unlock()
}

// Dial opens the live websocket, waits for the server's connected ack to
// learn the bound identity, and starts the frame loop. token may be empty
// for anonymous viewing.
func Dial(ctx context.Context, wsURL, apiURL, token string, feedCap int, log zerolog.Logger) (*Manager, error) {
	if token != "" {
		sep := "?"
		if strings.Contains(wsURL, "?") {
			sep = "&"
		}
		wsURL = wsURL + sep + "token=" + url.QueryEscape(token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("live client: dial: %w", err)
	}

	m := &Manager{
		ws:      ws,
		httpc:   &http.Client{Timeout: handshakeTimeout},
		apiURL:  apiURL,
		feedCap: feedCap,
		log:     log,
		rooms:   make(map[string]*roomState),
		done:    make(chan struct{}),
	}

	// The server acks the handshake before anything else.
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("live client: handshake ack: %w", err)
	}
	var ack wire.Ack
	if err := json.Unmarshal(data, &ack); err != nil || ack.Type != wire.EventConnected {
		_ = ws.Close()
		return nil, errors.New("live client: unexpected handshake frame")
	}
	if ack.Identity != nil {
		m.self = *ack.Identity
	}
	_ = ws.SetReadDeadline(time.Time{})

	go m.readLoop()
	return m, nil
}

// Identity returns the identity the server bound to this connection; the
// zero value means anonymous.
func (m *Manager) Identity() live.Identity {
	return m.self
}

// Join subscribes to a movement's room and seeds the local feed from the
// snapshot endpoint. A failed snapshot leaves the feed empty and returns the
// error; the room subscription itself stands, and pushed events still apply.
func (m *Manager) Join(ctx context.Context, movementID string) error {
	m.mu.Lock()
	if _, joined := m.rooms[movementID]; !joined {
		m.rooms[movementID] = &roomState{
			presence: live.NewPresenceView(m.self),
			feed:     live.NewFeed(m.feedCap, nil),
		}
	}
	m.mu.Unlock()

	if err := m.write(wire.Inbound{Type: wire.EventJoinRoom, MovementID: movementID}); err != nil {
		return err
	}

	seed, err := m.fetchSnapshot(ctx, movementID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if room, joined := m.rooms[movementID]; joined {
		fresh := live.NewFeed(m.feedCap, seed)
		// Events pushed while the snapshot was in flight stay ahead of it.
		pending := room.feed.Items()
		for i := len(pending) - 1; i >= 0; i-- {
			fresh.Append(pending[i])
		}
		room.feed = fresh
	}
	m.mu.Unlock()
	return nil
}

// Leave unsubscribes from the room and synchronously drops local state, so
// no listener outlives the view that owned it.
func (m *Manager) Leave(movementID string) error {
	m.mu.Lock()
	delete(m.rooms, movementID)
	m.mu.Unlock()
	return m.write(wire.Inbound{Type: wire.EventLeaveRoom, MovementID: movementID})
}

// Presence returns the room's ordered viewer list (self first) and count.
func (m *Manager) Presence(movementID string) ([]live.Identity, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, joined := m.rooms[movementID]
	if !joined {
		return nil, 0
	}
	return room.presence.Viewers(), room.presence.Count()
}

// Feed returns the room's activity feed, newest first.
func (m *Manager) Feed(movementID string) []live.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, joined := m.rooms[movementID]
	if !joined {
		return nil
	}
	return room.feed.Items()
}

// Close tears the connection down. Room state is dropped; the server's
// disconnect cascade handles the rooms this client never left explicitly.
func (m *Manager) Close() error {
	var err error
	m.closed.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.rooms = make(map[string]*roomState)
		m.mu.Unlock()

		m.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = m.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
		err = m.ws.Close()
		m.writeMu.Unlock()
	})
	return err
}

func (m *Manager) readLoop() {
	for {
		_, data, err := m.ws.ReadMessage()
		if err != nil {
			select {
			case <-m.done:
			default:
				m.log.Debug().Err(err).Msg("live client: connection dropped")
				_ = m.Close()
			}
			return
		}
		m.dispatch(data)
	}
}

func (m *Manager) dispatch(data []byte) {
	var env wire.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Type {
	case wire.EventPresenceState:
		var f wire.PresenceState
		if json.Unmarshal(data, &f) != nil {
			return
		}
		m.withRoom(f.MovementID, func(room *roomState) {
			room.presence.Reset(f.Viewers)
		})
	case wire.EventUserJoined:
		var f wire.PresenceDelta
		if json.Unmarshal(data, &f) != nil {
			return
		}
		m.withRoom(f.MovementID, func(room *roomState) {
			room.presence.Add(f.Viewer)
		})
	case wire.EventUserLeft:
		var f wire.PresenceDelta
		if json.Unmarshal(data, &f) != nil {
			return
		}
		m.withRoom(f.MovementID, func(room *roomState) {
			room.presence.Remove(f.Viewer)
		})
	case wire.EventActivityNew:
		var f wire.ActivityNew
		if json.Unmarshal(data, &f) != nil {
			return
		}
		m.withRoom(f.MovementID, func(room *roomState) {
			room.feed.Append(f.Activity)
		})
	case wire.EventMovementUpdated:
		var f wire.MovementUpdated
		if json.Unmarshal(data, &f) != nil {
			return
		}
		m.mu.Lock()
		cb := m.onMovementUpdated
		m.mu.Unlock()
		if cb != nil {
			cb(f.MovementID)
		}
	}
}

func (m *Manager) withRoom(movementID string, fn func(*roomState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, joined := m.rooms[movementID]; joined {
		fn(room)
	}
}

func (m *Manager) write(frame wire.Inbound) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	select {
	case <-m.done:
		return errors.New("live client: closed")
	default:
	}
	return m.ws.WriteMessage(websocket.TextMessage, payload)
}

func (m *Manager) fetchSnapshot(ctx context.Context, movementID string) ([]live.Activity, error) {
	endpoint := fmt.Sprintf("%s/api/v1/movements/%s/activities?limit=%d", m.apiURL, movementID, m.feedCap)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("live client: snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("live client: movement %s not found", movementID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("live client: snapshot status %d", resp.StatusCode)
	}

	var body struct {
		Activities []live.Activity `json:"activities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("live client: decode snapshot: %w", err)
	}
	return body.Activities, nil
}
