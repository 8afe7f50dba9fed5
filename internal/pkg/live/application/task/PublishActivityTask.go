package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	qport "go-movement/internal/infrastructure/queue/port"
	"go-movement/internal/infrastructure/realtime"
	live "go-movement/internal/pkg/live/application/domain"
)

// Queue task names for the live publish pipeline. The CRUD service enqueues
// these after persisting a mutation, keeping delivery fully decoupled from
// the mutating request.
const (
	PublishActivityTaskType = "live:publish_activity"
	MovementUpdatedTaskType = "live:movement_updated"
)

// LiveQueue is the asynq queue consumed by the live worker.
const LiveQueue = "live"

// PublishActivityPayload is the JSON payload transported via the queue.
// Kept decoupled from the domain type to avoid tight coupling with its tags.
type PublishActivityPayload struct {
	ID         string         `json:"id"`
	MovementID string         `json:"movementId"`
	Type       string         `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Actor      *live.Identity `json:"actor,omitempty"`
	TaskID     string         `json:"taskId,omitempty"`
	Title      string         `json:"title,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	Preview    string         `json:"preview,omitempty"`
	AlsoGlobal bool           `json:"alsoGlobal,omitempty"`
}

// MovementUpdatedPayload signals a list-level refresh for one movement.
type MovementUpdatedPayload struct {
	MovementID string `json:"movementId"`
}

// RegisterPublishTasks binds the live publish handlers to the worker server.
func RegisterPublishTasks(srv qport.Server, broadcaster *realtime.Broadcaster) {
	srv.Register(PublishActivityTaskType, func(ctx context.Context, t qport.Task) error {
		var p PublishActivityPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// Malformed payloads will never succeed; fail without retry value.
			return fmt.Errorf("publish activity: decode payload: %w", err)
		}
		broadcaster.PublishActivity(live.Activity{
			ID:         p.ID,
			MovementID: p.MovementID,
			Type:       live.ActivityType(p.Type),
			Timestamp:  p.Timestamp,
			Actor:      p.Actor,
			TaskID:     p.TaskID,
			Title:      p.Title,
			Amount:     p.Amount,
			Preview:    p.Preview,
		}, p.AlsoGlobal)
		return nil
	})

	srv.Register(MovementUpdatedTaskType, func(ctx context.Context, t qport.Task) error {
		var p MovementUpdatedPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("movement updated: decode payload: %w", err)
		}
		broadcaster.PublishMovementUpdated(p.MovementID)
		return nil
	})
}

// EnqueueActivity queues an activity event for fan-out. Used by mutation
// handlers living in the same binary; out-of-process producers enqueue the
// same payload shape directly.
func EnqueueActivity(ctx context.Context, client qport.Client, event live.Activity, alsoGlobal bool) error {
	payload, err := json.Marshal(PublishActivityPayload{
		ID:         event.ID,
		MovementID: event.MovementID,
		Type:       string(event.Type),
		Timestamp:  event.Timestamp,
		Actor:      event.Actor,
		TaskID:     event.TaskID,
		Title:      event.Title,
		Amount:     event.Amount,
		Preview:    event.Preview,
		AlsoGlobal: alsoGlobal,
	})
	if err != nil {
		return fmt.Errorf("enqueue activity: encode payload: %w", err)
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: PublishActivityTaskType, Payload: payload},
		qport.EnqueueOption{Queue: LiveQueue, MaxRetry: 3})
	return err
}

// EnqueueMovementUpdated queues a global refresh signal for a movement.
func EnqueueMovementUpdated(ctx context.Context, client qport.Client, movementID string) error {
	payload, err := json.Marshal(MovementUpdatedPayload{MovementID: movementID})
	if err != nil {
		return fmt.Errorf("enqueue movement updated: encode payload: %w", err)
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: MovementUpdatedTaskType, Payload: payload},
		qport.EnqueueOption{Queue: LiveQueue, MaxRetry: 3})
	return err
}
