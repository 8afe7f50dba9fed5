package repository

import (
	"context"

	live "go-movement/internal/pkg/live/application/domain"
)

// MovementRepository defines the read operations the activity aggregator
// needs from the persistence collaborator. Writes to these records happen in
// the CRUD service, outside this module.
type MovementRepository interface {
	MovementExists(ctx context.Context, movementID string) (bool, error)
	ListTasks(ctx context.Context, movementID string) ([]live.Task, error)
	ListSupports(ctx context.Context, movementID string) ([]live.Support, error)
	ListDonations(ctx context.Context, movementID string) ([]live.Donation, error)
	ListComments(ctx context.Context, movementID string) ([]live.Comment, error)
}

// UserRepository resolves user display attributes for identity binding.
type UserRepository interface {
	GetDisplayName(ctx context.Context, userID string) (string, error)
}
