package usecase

import (
	"context"
	"fmt"
	"sort"

	live "go-movement/internal/pkg/live/application/domain"
	repository "go-movement/internal/pkg/live/persistence/repository/port"
)

// DefaultSnapshotLimit is applied when the caller passes no limit.
const DefaultSnapshotLimit = 50

// SnapshotActivityInput carries the parameters for one snapshot request.
type SnapshotActivityInput struct {
	MovementID string
	Limit      int
}

// SnapshotActivityUseCase reconstructs a movement's activity history from
// persisted records: tasks, supports, donations and comments are expanded
// into events, merged into one sequence and returned newest first.
type SnapshotActivityUseCase struct {
	Repo repository.MovementRepository
}

func NewSnapshotActivityUseCase(repo repository.MovementRepository) *SnapshotActivityUseCase {
	return &SnapshotActivityUseCase{Repo: repo}
}

// Execute builds the snapshot. It fails with ErrMovementNotFound when the
// movement itself is missing, and with ErrPersistence when any category
// fetch fails; a partial feed is never returned, so no activity category is
// ever silently absent.
func (uc *SnapshotActivityUseCase) Execute(ctx context.Context, in SnapshotActivityInput) ([]live.Activity, error) {
	if in.MovementID == "" {
		return nil, fmt.Errorf("movementId is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}

	exists, err := uc.Repo.MovementExists(ctx, in.MovementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !exists {
		return nil, ErrMovementNotFound
	}

	tasks, err := uc.Repo.ListTasks(ctx, in.MovementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	supports, err := uc.Repo.ListSupports(ctx, in.MovementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	donations, err := uc.Repo.ListDonations(ctx, in.MovementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	comments, err := uc.Repo.ListComments(ctx, in.MovementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	events := make([]live.Activity, 0, len(tasks)*2+len(supports)+len(donations)+len(comments))
	for _, t := range tasks {
		events = append(events, live.ExpandTask(in.MovementID, t)...)
	}
	for _, s := range supports {
		events = append(events, live.NewSupportActivity(in.MovementID, s))
	}
	for _, d := range donations {
		if d.Anonymous {
			continue
		}
		events = append(events, live.NewDonationActivity(in.MovementID, d))
	}
	for _, c := range comments {
		events = append(events, live.NewCommentActivity(in.MovementID, c))
	}

	// Newest first. Stable so same-timestamp events keep their relative
	// expansion order; ties are otherwise acceptable non-determinism.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
