package live

import "time"

// Source records as loaded from the persistence collaborator. These are
// inputs to activity expansion only; their lifecycle (CRUD) is out of scope.

// Task is a unit of work published on a movement page.
type Task struct {
	ID        string     `db:"id"`
	Title     string     `db:"title"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	ClaimedAt *time.Time `db:"claimed_at"`
	Creator   *Identity
	Claimer   *Identity
}

// Support is a lightweight endorsement of a movement.
type Support struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Supporter *Identity
}

// Donation is a monetary contribution. Amount is in cents. Donations marked
// anonymous never surface in the activity feed.
type Donation struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Amount    int64     `db:"amount"`
	Anonymous bool      `db:"anonymous"`
	Donor     *Identity
}

// Comment is a public note on a movement page.
type Comment struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Content   string    `db:"content"`
	Author    *Identity
}
