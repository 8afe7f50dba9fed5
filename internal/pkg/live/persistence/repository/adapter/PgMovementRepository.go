package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	live "go-movement/internal/pkg/live/application/domain"
)

// PgMovementRepository reads movement records from PostgreSQL. Actor
// identities are joined in so the aggregator never needs a second round trip.
type PgMovementRepository struct {
	pool *pgxpool.Pool
}

func NewPgMovementRepository(pool *pgxpool.Pool) *PgMovementRepository {
	return &PgMovementRepository{pool: pool}
}

func (r *PgMovementRepository) MovementExists(ctx context.Context, movementID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgMovementRepository: nil pool")
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM movement.movement WHERE id = $1::uuid)",
		movementID,
	).Scan(&exists)
	return exists, err
}

func (r *PgMovementRepository) ListTasks(ctx context.Context, movementID string) ([]live.Task, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMovementRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.id::text, t.title, t.created_at, t.updated_at, t.claimed_at,
		       creator.id::text, creator.display_name,
		       claimer.id::text, claimer.display_name
		FROM movement.task t
		LEFT JOIN movement.user_account creator ON creator.id = t.created_by
		LEFT JOIN movement.user_account claimer ON claimer.id = t.claimed_by
		WHERE t.movement_id = $1::uuid
		ORDER BY t.created_at DESC
	`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []live.Task
	for rows.Next() {
		var t live.Task
		var creatorID, creatorName *string
		var claimerID, claimerName *string
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &t.ClaimedAt,
			&creatorID, &creatorName, &claimerID, &claimerName); err != nil {
			return nil, err
		}
		t.Creator = toIdentity(creatorID, creatorName)
		t.Claimer = toIdentity(claimerID, claimerName)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PgMovementRepository) ListSupports(ctx context.Context, movementID string) ([]live.Support, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMovementRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.created_at, u.id::text, u.display_name
		FROM movement.support s
		LEFT JOIN movement.user_account u ON u.id = s.user_id
		WHERE s.movement_id = $1::uuid
		ORDER BY s.created_at DESC
	`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var supports []live.Support
	for rows.Next() {
		var (
			s                live.Support
			userID, userName *string
		)
		if err := rows.Scan(&s.ID, &s.CreatedAt, &userID, &userName); err != nil {
			return nil, err
		}
		s.Supporter = toIdentity(userID, userName)
		supports = append(supports, s)
	}
	return supports, rows.Err()
}

func (r *PgMovementRepository) ListDonations(ctx context.Context, movementID string) ([]live.Donation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMovementRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT d.id::text, d.created_at, d.amount, d.anonymous, u.id::text, u.display_name
		FROM movement.donation d
		LEFT JOIN movement.user_account u ON u.id = d.user_id
		WHERE d.movement_id = $1::uuid
		ORDER BY d.created_at DESC
	`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []live.Donation
	for rows.Next() {
		var (
			d                live.Donation
			userID, userName *string
		)
		if err := rows.Scan(&d.ID, &d.CreatedAt, &d.Amount, &d.Anonymous, &userID, &userName); err != nil {
			return nil, err
		}
		d.Donor = toIdentity(userID, userName)
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func (r *PgMovementRepository) ListComments(ctx context.Context, movementID string) ([]live.Comment, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMovementRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.created_at, c.content, u.id::text, u.display_name
		FROM movement.comment c
		LEFT JOIN movement.user_account u ON u.id = c.user_id
		WHERE c.movement_id = $1::uuid
		ORDER BY c.created_at DESC
	`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []live.Comment
	for rows.Next() {
		var (
			c                live.Comment
			userID, userName *string
		)
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Content, &userID, &userName); err != nil {
			return nil, err
		}
		c.Author = toIdentity(userID, userName)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func toIdentity(id, name *string) *live.Identity {
	if id == nil {
		return nil
	}
	identity := &live.Identity{UserID: *id}
	if name != nil {
		identity.Name = *name
	}
	return identity
}
