package services

import (
	"context"

	"github.com/gatherly/apiserver/types"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	List(ctx context.Context) ([]types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	UpdateImageKey(ctx context.Context, id int, imageKey string) error
	Delete(ctx context.Context, id int) error
}

// EventService encapsulates event use-cases.
type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{repo: repo}
}

func (s *EventService) List(ctx context.Context) ([]types.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id int) (types.Event, error) {
	return s.repo.Get(ctx, id)
}

func (s *EventService) Create(ctx context.Context, event types.Event) (types.Event, error) {
	return s.repo.Create(ctx, event)
}

func (s *EventService) Update(ctx context.Context, event types.Event) (types.Event, error) {
	return s.repo.Update(ctx, event)
}

func (s *EventService) SetImageKey(ctx context.Context, id int, imageKey string) error {
	return s.repo.UpdateImageKey(ctx, id, imageKey)
}

func (s *EventService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
