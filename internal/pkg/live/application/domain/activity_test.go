package live

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTask(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("fresh task yields only task_created", func(t *testing.T) {
		task := Task{ID: "t1", Title: "Paint the mural", CreatedAt: created, UpdatedAt: created}
		events := ExpandTask("m1", task)
		require.Len(t, events, 1)
		assert.Equal(t, ActivityTaskCreated, events[0].Type)
		assert.Equal(t, "task_created:t1", events[0].ID)
		assert.Equal(t, created, events[0].Timestamp)
		assert.Equal(t, "Paint the mural", events[0].Title)
	})

	t.Run("claimed task adds task_claimed at claim time", func(t *testing.T) {
		claimed := created.Add(2 * time.Hour)
		task := Task{
			ID: "t1", Title: "Paint the mural",
			CreatedAt: created, UpdatedAt: created, ClaimedAt: &claimed,
			Claimer: &Identity{UserID: "u2", Name: "Ana"},
		}
		events := ExpandTask("m1", task)
		require.Len(t, events, 2)
		assert.Equal(t, ActivityTaskClaimed, events[1].Type)
		assert.Equal(t, claimed, events[1].Timestamp)
		require.NotNil(t, events[1].Actor)
		assert.Equal(t, "u2", events[1].Actor.UserID)
	})

	t.Run("later modification adds task_updated", func(t *testing.T) {
		task := Task{ID: "t1", CreatedAt: created, UpdatedAt: created.Add(time.Minute)}
		events := ExpandTask("m1", task)
		require.Len(t, events, 2)
		assert.Equal(t, ActivityTaskUpdated, events[1].Type)
		assert.Equal(t, "task_updated:t1", events[1].ID)
	})

	t.Run("update equal to creation time is not an update", func(t *testing.T) {
		task := Task{ID: "t1", CreatedAt: created, UpdatedAt: created}
		assert.Len(t, ExpandTask("m1", task), 1)
	})
}

func TestNewCommentActivity(t *testing.T) {
	at := time.Now()

	t.Run("long content is capped at 100 characters", func(t *testing.T) {
		content := strings.Repeat("x", 150)
		event := NewCommentActivity("m1", Comment{ID: "c1", CreatedAt: at, Content: content})
		assert.Equal(t, content[:100], event.Preview)
		assert.Len(t, []rune(event.Preview), PreviewLimit)
	})

	t.Run("short content passes through", func(t *testing.T) {
		event := NewCommentActivity("m1", Comment{ID: "c1", CreatedAt: at, Content: "hello"})
		assert.Equal(t, "hello", event.Preview)
	})

	t.Run("truncation respects multibyte characters", func(t *testing.T) {
		content := strings.Repeat("é", 150)
		event := NewCommentActivity("m1", Comment{ID: "c1", CreatedAt: at, Content: content})
		assert.Equal(t, strings.Repeat("é", 100), event.Preview)
	})
}

func TestEventIDsAreUniquePerRecordAndVariant(t *testing.T) {
	claimed := time.Now()
	task := Task{ID: "42", CreatedAt: claimed.Add(-time.Hour), UpdatedAt: claimed, ClaimedAt: &claimed}
	events := ExpandTask("m1", task)
	seen := make(map[string]struct{})
	for _, e := range events {
		_, dup := seen[e.ID]
		require.False(t, dup, "duplicate event id %s", e.ID)
		seen[e.ID] = struct{}{}
	}

	support := NewSupportActivity("m1", Support{ID: "42", CreatedAt: claimed})
	_, dup := seen[support.ID]
	assert.False(t, dup, "support id collides with task ids for the same record id")
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "movement:abc", RoomKey("abc"))
	assert.Equal(t, "abc", MovementIDFromRoomKey("movement:abc"))
}
