package realtime

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	live "go-movement/internal/pkg/live/application/domain"
	"go-movement/internal/pkg/live/wire"
)

// Relay carries published frames between nodes so members connected
// elsewhere see the same fan-out. Implementations are best-effort.
type Relay interface {
	// Publish sends an envelope to every other node.
	Publish(ctx context.Context, payload []byte) error
	// Subscribe invokes handler for every envelope published by other nodes
	// until ctx is canceled.
	Subscribe(ctx context.Context, handler func(payload []byte))
}

// relayEnvelope is the frame shape exchanged between nodes.
type relayEnvelope struct {
	NodeID  string          `json:"nodeId"`
	RoomKey string          `json:"roomKey,omitempty"`
	Global  bool            `json:"global,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcaster fans published frames out to the registry's current members.
// Delivery is fire-and-forget: publishing to an empty or never-created room
// succeeds silently, and per-connection send failures are logged, never
// returned. Publish never blocks the mutation that triggered it.
type Broadcaster struct {
	registry *RoomRegistry
	relay    Relay
	nodeID   string
	log      zerolog.Logger
}

// NewBroadcaster constructs a broadcaster over the given registry. relay may
// be nil for single-node deployments.
func NewBroadcaster(registry *RoomRegistry, relay Relay, nodeID string, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, relay: relay, nodeID: nodeID, log: log}
}

// PublishActivity delivers an activity:new frame to the event's movement
// room. With alsoGlobal, a coarse movement:updated frame additionally goes
// to every attached connection for list-level refresh.
func (b *Broadcaster) PublishActivity(event live.Activity, alsoGlobal bool) {
	payload, err := json.Marshal(wire.ActivityNew{
		Type:       wire.EventActivityNew,
		MovementID: event.MovementID,
		Activity:   event,
	})
	if err != nil {
		b.log.Error().Err(err).Str("activity", event.ID).Msg("encode activity frame")
		return
	}
	b.Publish(live.RoomKey(event.MovementID), payload)

	if alsoGlobal {
		b.PublishMovementUpdated(event.MovementID)
	}
}

// PublishMovementUpdated emits the global refresh signal for a movement.
func (b *Broadcaster) PublishMovementUpdated(movementID string) {
	payload, err := json.Marshal(wire.MovementUpdated{
		Type:       wire.EventMovementUpdated,
		MovementID: movementID,
	})
	if err != nil {
		return
	}
	b.PublishGlobal(payload)
}

// Publish delivers payload to the room's current members on this node and
// relays it to peers.
func (b *Broadcaster) Publish(roomKey string, payload []byte) {
	b.deliver(b.registry.members(roomKey), payload)
	b.relayOut(relayEnvelope{NodeID: b.nodeID, RoomKey: roomKey, Payload: payload})
}

// PublishGlobal delivers payload to every attached connection on this node
// and relays it to peers.
func (b *Broadcaster) PublishGlobal(payload []byte) {
	b.deliver(b.registry.all(), payload)
	b.relayOut(relayEnvelope{NodeID: b.nodeID, Global: true, Payload: payload})
}

// Run consumes relayed frames from other nodes and applies them to local
// members. Blocks until ctx is canceled; no-op without a relay.
func (b *Broadcaster) Run(ctx context.Context) {
	if b.relay == nil {
		<-ctx.Done()
		return
	}
	b.relay.Subscribe(ctx, func(raw []byte) {
		var env relayEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			b.log.Debug().Err(err).Msg("malformed relay envelope")
			return
		}
		if env.NodeID == b.nodeID {
			return
		}
		if env.Global {
			b.deliver(b.registry.all(), env.Payload)
			return
		}
		b.deliver(b.registry.members(env.RoomKey), env.Payload)
	})
}

func (b *Broadcaster) deliver(conns []*Connection, payload []byte) {
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			b.log.Debug().Err(err).Str("conn", conn.ID).Msg("broadcast delivery dropped")
		}
	}
}

func (b *Broadcaster) relayOut(env relayEnvelope) {
	if b.relay == nil {
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := b.relay.Publish(context.Background(), raw); err != nil {
		b.log.Warn().Err(err).Msg("relay publish failed")
	}
}
