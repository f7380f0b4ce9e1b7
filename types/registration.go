package types

import "time"

// Registration records that a user has signed up for an event.
// At most one registration exists per (user, event) pair; the database
// enforces this with a unique constraint.
type Registration struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	EventID   int       `json:"event_id" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
