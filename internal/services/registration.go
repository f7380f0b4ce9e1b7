package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
)

var (
	// ErrAlreadyRegistered is returned when the user is already
	// registered for the event.
	ErrAlreadyRegistered = errors.New("user already registered for this event")

	// ErrNotRegistered is returned when the user has no registration
	// for the event.
	ErrNotRegistered = errors.New("user is not registered for this event")
)

// RegistrationRepository defines persistence operations for the
// registration relation.
type RegistrationRepository interface {
	Exists(ctx context.Context, userID, eventID int) (bool, error)
	Create(ctx context.Context, userID, eventID int) (types.Registration, error)
	Delete(ctx context.Context, userID, eventID int) error
}

// RegistrationService enforces the at-most-one-registration invariant
// for (user, event) pairs. The existence check is advisory under
// concurrency; the repository's unique constraint is the authoritative
// arbiter when two registrations for the same pair race.
type RegistrationService struct {
	repo RegistrationRepository
}

func NewRegistrationService(repo RegistrationRepository) *RegistrationService {
	return &RegistrationService{repo: repo}
}

func (s *RegistrationService) IsRegistered(ctx context.Context, userID, eventID int) (bool, error) {
	return s.repo.Exists(ctx, userID, eventID)
}

// Register creates a registration for the pair, failing with
// ErrAlreadyRegistered when one already exists. A concurrent writer that
// slips past the existence check surfaces as a unique violation from the
// insert and is reported the same way.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID int) (types.Registration, error) {
	exists, err := s.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return types.Registration{}, err
	}
	if exists {
		return types.Registration{}, ErrAlreadyRegistered
	}

	registration, err := s.repo.Create(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Registration{}, ErrAlreadyRegistered
		}
		return types.Registration{}, err
	}
	return registration, nil
}

// Unregister removes the registration for the pair, failing with
// ErrNotRegistered when none exists. A removal that affects zero rows
// despite the existence check signals a broken invariant and is surfaced
// as an internal fault, not a business rejection.
func (s *RegistrationService) Unregister(ctx context.Context, userID, eventID int) error {
	exists, err := s.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotRegistered
	}

	if err := s.repo.Delete(ctx, userID, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("registration ledger: delete removed no rows for user %d event %d after positive existence check", userID, eventID)
			return fmt.Errorf("registration for user %d and event %d vanished during removal", userID, eventID)
		}
		return err
	}
	return nil
}
