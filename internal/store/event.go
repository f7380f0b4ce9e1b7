package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gatherly/apiserver/types"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) List(ctx context.Context) ([]types.Event, error) {
	const query = `
		SELECT id, title, description, address, date, image_key, user_id, created_at
		FROM events
		ORDER BY date ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Get(ctx context.Context, id int) (types.Event, error) {
	const query = `
		SELECT id, title, description, address, date, image_key, user_id, created_at
		FROM events
		WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	event.CreatedAt = time.Now()

	const query = `
		INSERT INTO events (title, description, address, date, image_key, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Address,
		event.Date,
		event.ImageKey,
		ownerValue(event.UserID),
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	const query = `
		UPDATE events
		SET title = $1,
			description = $2,
			address = $3,
			date = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Address,
		event.Date,
		event.ID,
	)
	if err != nil {
		return types.Event{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Event{}, err
	}
	if affected == 0 {
		return types.Event{}, ErrNotFound
	}
	return r.Get(ctx, event.ID)
}

func (r *EventRepository) UpdateImageKey(ctx context.Context, id int, imageKey string) error {
	const query = `UPDATE events SET image_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, id)
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

func (r *EventRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

func scanEvent(scan func(dest ...any) error) (types.Event, error) {
	var event types.Event
	var owner sql.NullInt64
	err := scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Address,
		&event.Date,
		&event.ImageKey,
		&owner,
		&event.CreatedAt,
	)
	if err != nil {
		return types.Event{}, err
	}
	if owner.Valid {
		id := int(owner.Int64)
		event.UserID = &id
	}
	return event, nil
}

func ownerValue(userID *int) sql.NullInt64 {
	if userID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*userID), Valid: true}
}
