package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	live "go-movement/internal/pkg/live/application/domain"
)

type fakeMovementRepo struct {
	exists    bool
	existsErr error
	tasks     []live.Task
	supports  []live.Support
	donations []live.Donation
	comments  []live.Comment

	tasksErr, supportsErr, donationsErr, commentsErr error
}

func (f *fakeMovementRepo) MovementExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}
func (f *fakeMovementRepo) ListTasks(context.Context, string) ([]live.Task, error) {
	return f.tasks, f.tasksErr
}
func (f *fakeMovementRepo) ListSupports(context.Context, string) ([]live.Support, error) {
	return f.supports, f.supportsErr
}
func (f *fakeMovementRepo) ListDonations(context.Context, string) ([]live.Donation, error) {
	return f.donations, f.donationsErr
}
func (f *fakeMovementRepo) ListComments(context.Context, string) ([]live.Comment, error) {
	return f.comments, f.commentsErr
}

func TestSnapshotActivityUseCase(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("created then claimed task yields claimed before created", func(t *testing.T) {
		claimed := base.Add(time.Hour)
		repo := &fakeMovementRepo{
			exists: true,
			tasks: []live.Task{{
				ID: "t1", Title: "Flyers", CreatedAt: base, UpdatedAt: base, ClaimedAt: &claimed,
			}},
		}
		uc := NewSnapshotActivityUseCase(repo)

		events, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1"})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, live.ActivityTaskClaimed, events[0].Type)
		assert.Equal(t, live.ActivityTaskCreated, events[1].Type)
	})

	t.Run("merges all categories newest first", func(t *testing.T) {
		repo := &fakeMovementRepo{
			exists:    true,
			tasks:     []live.Task{{ID: "t1", CreatedAt: base, UpdatedAt: base}},
			supports:  []live.Support{{ID: "s1", CreatedAt: base.Add(3 * time.Minute)}},
			donations: []live.Donation{{ID: "d1", CreatedAt: base.Add(2 * time.Minute), Amount: 5000}},
			comments:  []live.Comment{{ID: "c1", CreatedAt: base.Add(time.Minute), Content: "go team"}},
		}
		uc := NewSnapshotActivityUseCase(repo)

		events, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1"})
		require.NoError(t, err)
		require.Len(t, events, 4)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i].Timestamp.After(events[i-1].Timestamp),
				"timestamps must be non-increasing")
		}
		assert.Equal(t, live.ActivitySupport, events[0].Type)
	})

	t.Run("anonymous donations are skipped", func(t *testing.T) {
		repo := &fakeMovementRepo{
			exists: true,
			donations: []live.Donation{
				{ID: "d1", CreatedAt: base, Amount: 100, Anonymous: true},
				{ID: "d2", CreatedAt: base, Amount: 200},
			},
		}
		uc := NewSnapshotActivityUseCase(repo)

		events, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "donation:d2", events[0].ID)
	})

	t.Run("result is truncated to limit", func(t *testing.T) {
		var comments []live.Comment
		for i := 0; i < 80; i++ {
			comments = append(comments, live.Comment{
				ID: string(rune('a' + i%26)) + string(rune('0' + i/26)), CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
		}
		repo := &fakeMovementRepo{exists: true, comments: comments}
		uc := NewSnapshotActivityUseCase(repo)

		events, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, events, 10)

		events, err = uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1"})
		require.NoError(t, err)
		assert.Len(t, events, DefaultSnapshotLimit)
	})

	t.Run("missing movement surfaces not found", func(t *testing.T) {
		uc := NewSnapshotActivityUseCase(&fakeMovementRepo{exists: false})
		_, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "nope"})
		assert.ErrorIs(t, err, ErrMovementNotFound)
	})

	t.Run("any category fetch failure fails the whole snapshot", func(t *testing.T) {
		repo := &fakeMovementRepo{
			exists:      true,
			tasks:       []live.Task{{ID: "t1", CreatedAt: base, UpdatedAt: base}},
			commentsErr: errors.New("connection reset"),
		}
		uc := NewSnapshotActivityUseCase(repo)

		events, err := uc.Execute(ctx, SnapshotActivityInput{MovementID: "m1"})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Nil(t, events, "no partial feed on storage failure")
	})

	t.Run("movement id is required", func(t *testing.T) {
		uc := NewSnapshotActivityUseCase(&fakeMovementRepo{exists: true})
		_, err := uc.Execute(ctx, SnapshotActivityInput{})
		assert.Error(t, err)
	})
}
