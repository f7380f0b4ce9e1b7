package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/gatherly/apiserver/types"
)

// RegistrationRepository handles persistence for the user-event
// registration relation. The registrations table carries a unique
// constraint on (user_id, event_id); Create maps a violation of it to
// ErrDuplicate so concurrent registrations for the same pair resolve to
// exactly one winner.
type RegistrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, userID, eventID int) (types.Registration, error) {
	registration := types.Registration{
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: time.Now(),
	}

	const query = `
		INSERT INTO registrations (user_id, event_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		registration.UserID,
		registration.EventID,
		registration.CreatedAt,
	).Scan(&registration.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Registration{}, ErrDuplicate
		}
		return types.Registration{}, err
	}
	return registration, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, userID, eventID int) error {
	const query = `DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, eventID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
