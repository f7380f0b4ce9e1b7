package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherly/apiserver/internal/auth"
	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
)

func newEventTestRouter(t *testing.T) (*chi.Mux, *fakeEventRepo, *fakeRegistrationRepo) {
	t.Helper()
	eventRepo := newFakeEventRepo()
	registrationRepo := newFakeRegistrationRepo()
	router := chi.NewRouter()
	router.Route("/events", func(r chi.Router) {
		EventRouter(
			r,
			services.NewEventService(eventRepo),
			services.NewRegistrationService(registrationRepo),
			nil,
			nil,
			RequireAuth(testSecret),
		)
	})
	return router, eventRepo, registrationRepo
}

func tokenFor(t *testing.T, id int, email string) string {
	t.Helper()
	token, err := auth.IssueToken(auth.Identity{ID: id, Email: email}, testSecret, auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func eventPayload() map[string]any {
	return map[string]any{
		"title":       "Go Meetup",
		"description": "Monthly talks",
		"address":     "1 Main St",
		"date":        time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createEvent(t *testing.T, router http.Handler, token string) types.Event {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/events", token, eventPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status %d: %s", rec.Code, rec.Body.String())
	}
	var resp EventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Event
}

func TestCreateEventRequiresAuth(t *testing.T) {
	router, _, _ := newEventTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/events", "", eventPayload())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateEventSetsOwner(t *testing.T) {
	router, _, _ := newEventTestRouter(t)
	token := tokenFor(t, 7, "owner@example.com")

	event := createEvent(t, router, token)
	if event.UserID == nil || *event.UserID != 7 {
		t.Fatalf("expected owner 7, got %v", event.UserID)
	}
}

func TestCreateEventValidation(t *testing.T) {
	router, _, _ := newEventTestRouter(t)
	token := tokenFor(t, 7, "owner@example.com")

	rec := doJSON(t, router, http.MethodPost, "/events", token, map[string]any{
		"description": "no title, address, or date",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %v", envelope.Errors)
	}
}

func TestUpdateEventOwnership(t *testing.T) {
	router, _, _ := newEventTestRouter(t)
	ownerToken := tokenFor(t, 1, "owner@example.com")
	otherToken := tokenFor(t, 2, "other@example.com")

	event := createEvent(t, router, ownerToken)
	path := fmt.Sprintf("/events/%d", event.ID)

	payload := eventPayload()
	payload["title"] = "Go Meetup (moved)"

	t.Run("unauthenticated is 401 before ownership", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, path, "", payload)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("non-owner is 403", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, path, otherToken, payload)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("owner may update", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, path, ownerToken, payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp EventResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Event.Title != "Go Meetup (moved)" {
			t.Fatalf("unexpected title %q", resp.Event.Title)
		}
	})
}

func TestOwnerlessEventIsNeverMutable(t *testing.T) {
	router, eventRepo, _ := newEventTestRouter(t)
	token := tokenFor(t, 1, "someone@example.com")

	// Simulate a legacy event created without authentication.
	legacy, err := eventRepo.Create(context.Background(), types.Event{
		Title:   "Legacy",
		Address: "Nowhere",
		Date:    time.Now(),
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}

	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/events/%d", legacy.ID), token, eventPayload())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for ownerless event, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/events/%d", legacy.ID), token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for ownerless event delete, got %d", rec.Code)
	}
}

func TestDeleteEventOwnership(t *testing.T) {
	router, _, _ := newEventTestRouter(t)
	ownerToken := tokenFor(t, 1, "owner@example.com")
	otherToken := tokenFor(t, 2, "other@example.com")

	event := createEvent(t, router, ownerToken)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec := doJSON(t, router, http.MethodDelete, path, otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, path, ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	check := httptest.NewRecorder()
	router.ServeHTTP(check, req)
	if check.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", check.Code)
	}
}

func TestReadsAreNeverOwnershipGated(t *testing.T) {
	router, _, _ := newEventTestRouter(t)
	ownerToken := tokenFor(t, 1, "owner@example.com")
	event := createEvent(t, router, ownerToken)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/events/%d", event.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without any token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without any token, got %d", rec.Code)
	}
}

func TestRegistrationFlow(t *testing.T) {
	router, _, registrationRepo := newEventTestRouter(t)
	ownerToken := tokenFor(t, 1, "owner@example.com")
	attendeeToken := tokenFor(t, 2, "attendee@example.com")

	event := createEvent(t, router, ownerToken)
	registerPath := fmt.Sprintf("/events/%d/register", event.ID)
	unregisterPath := fmt.Sprintf("/events/%d/unregister", event.ID)

	t.Run("register requires auth", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, registerPath, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("register succeeds once", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, registerPath, attendeeToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		exists, err := registrationRepo.Exists(context.Background(), 2, event.ID)
		if err != nil || !exists {
			t.Fatalf("expected registration to exist, got exists=%v err=%v", exists, err)
		}
	})

	t.Run("second register is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, registerPath, attendeeToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var envelope Envelope
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if envelope.Message != "User already registered for this event" {
			t.Fatalf("unexpected message %q", envelope.Message)
		}
	})

	t.Run("unregister then repeat", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, unregisterPath, attendeeToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rec = doJSON(t, router, http.MethodPost, unregisterPath, attendeeToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for repeated unregister, got %d", rec.Code)
		}
	})

	t.Run("pair is reusable after removal", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, registerPath, attendeeToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for re-registration, got %d", rec.Code)
		}
	})

	t.Run("unknown event is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/events/9999/register", attendeeToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
