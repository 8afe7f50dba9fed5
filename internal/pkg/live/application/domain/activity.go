package live

import (
	"strings"
	"time"
)

// ActivityType tags the variant of an activity event.
type ActivityType string

const (
	ActivityTaskCreated ActivityType = "task_created"
	ActivityTaskClaimed ActivityType = "task_claimed"
	ActivityTaskUpdated ActivityType = "task_updated"
	ActivitySupport     ActivityType = "support"
	ActivityDonation    ActivityType = "donation"
	ActivityComment     ActivityType = "comment"
)

// PreviewLimit caps comment previews carried on activity events.
const PreviewLimit = 100

// Activity is an immutable record of one user-visible action on a movement.
// The ID is unique per (source record, variant) pair so duplicate delivery
// can be deduped; a later change to the same record yields a new event with
// a new variant rather than a mutation of an old one.
type Activity struct {
	ID         string       `json:"id"`
	MovementID string       `json:"movementId"`
	Type       ActivityType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	Actor      *Identity    `json:"actor,omitempty"`

	// Variant payload. Task variants carry TaskID and Title, donations carry
	// Amount (cents), comments carry Preview.
	TaskID  string `json:"taskId,omitempty"`
	Title   string `json:"title,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// RoomKey returns the broadcast room key owning a movement's live updates.
func RoomKey(movementID string) string {
	return "movement:" + movementID
}

// MovementIDFromRoomKey recovers the movement id from a room key.
func MovementIDFromRoomKey(key string) string {
	return strings.TrimPrefix(key, "movement:")
}

func eventID(t ActivityType, recordID string) string {
	return string(t) + ":" + recordID
}

// NewTaskActivity builds one of the task_* variants for the given task.
func NewTaskActivity(t ActivityType, movementID string, task Task, at time.Time, actor *Identity) Activity {
	return Activity{
		ID:         eventID(t, task.ID),
		MovementID: movementID,
		Type:       t,
		Timestamp:  at,
		Actor:      actor,
		TaskID:     task.ID,
		Title:      task.Title,
	}
}

// NewSupportActivity builds a support event.
func NewSupportActivity(movementID string, s Support) Activity {
	return Activity{
		ID:         eventID(ActivitySupport, s.ID),
		MovementID: movementID,
		Type:       ActivitySupport,
		Timestamp:  s.CreatedAt,
		Actor:      s.Supporter,
	}
}

// NewDonationActivity builds a donation event. Callers are responsible for
// skipping anonymous donations.
func NewDonationActivity(movementID string, d Donation) Activity {
	return Activity{
		ID:         eventID(ActivityDonation, d.ID),
		MovementID: movementID,
		Type:       ActivityDonation,
		Timestamp:  d.CreatedAt,
		Actor:      d.Donor,
		Amount:     d.Amount,
	}
}

// NewCommentActivity builds a comment event with the content preview capped
// at PreviewLimit characters.
func NewCommentActivity(movementID string, c Comment) Activity {
	return Activity{
		ID:         eventID(ActivityComment, c.ID),
		MovementID: movementID,
		Type:       ActivityComment,
		Timestamp:  c.CreatedAt,
		Actor:      c.Author,
		Preview:    TruncatePreview(c.Content),
	}
}

// TruncatePreview returns the first PreviewLimit characters of content.
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return content
	}
	return string(runes[:PreviewLimit])
}

// ExpandTask turns one task record into its activity events: task_created at
// creation time, task_claimed if a claim timestamp is set, and task_updated
// if the last-modified time is strictly later than creation.
func ExpandTask(movementID string, t Task) []Activity {
	events := []Activity{NewTaskActivity(ActivityTaskCreated, movementID, t, t.CreatedAt, t.Creator)}
	if t.ClaimedAt != nil {
		events = append(events, NewTaskActivity(ActivityTaskClaimed, movementID, t, *t.ClaimedAt, t.Claimer))
	}
	if t.UpdatedAt.After(t.CreatedAt) {
		events = append(events, NewTaskActivity(ActivityTaskUpdated, movementID, t, t.UpdatedAt, nil))
	}
	return events
}
