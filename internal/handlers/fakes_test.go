package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
)

// In-memory repositories backing handler tests. They mirror the store
// package's contract, including its sentinel errors.

type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

type fakeEventRepo struct {
	nextID int
	events map[int]types.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: map[int]types.Event{}}
}

func (r *fakeEventRepo) List(ctx context.Context) ([]types.Event, error) {
	events := make([]types.Event, 0, len(r.events))
	for _, event := range r.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (r *fakeEventRepo) Get(ctx context.Context, id int) (types.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) Create(ctx context.Context, event types.Event) (types.Event, error) {
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	r.nextID++
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event types.Event) (types.Event, error) {
	existing, ok := r.events[event.ID]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	existing.Title = event.Title
	existing.Description = event.Description
	existing.Address = event.Address
	existing.Date = event.Date
	r.events[event.ID] = existing
	return existing, nil
}

func (r *fakeEventRepo) UpdateImageKey(ctx context.Context, id int, imageKey string) error {
	event, ok := r.events[id]
	if !ok {
		return store.ErrNotFound
	}
	event.ImageKey = imageKey
	r.events[id] = event
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type pairKey struct {
	userID  int
	eventID int
}

type fakeRegistrationRepo struct {
	nextID int
	pairs  map[pairKey]types.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{nextID: 1, pairs: map[pairKey]types.Registration{}}
}

func (r *fakeRegistrationRepo) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	_, ok := r.pairs[pairKey{userID, eventID}]
	return ok, nil
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, userID, eventID int) (types.Registration, error) {
	key := pairKey{userID, eventID}
	if _, ok := r.pairs[key]; ok {
		return types.Registration{}, store.ErrDuplicate
	}
	registration := types.Registration{
		ID:        r.nextID,
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: time.Now(),
	}
	r.nextID++
	r.pairs[key] = registration
	return registration, nil
}

func (r *fakeRegistrationRepo) Delete(ctx context.Context, userID, eventID int) error {
	key := pairKey{userID, eventID}
	if _, ok := r.pairs[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.pairs, key)
	return nil
}
