package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gatherly/apiserver/internal/auth"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// Envelope is the response shape shared by every endpoint: a success
// flag, a human-readable message, and per-field error strings on
// validation failures.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func identityFromContext(ctx context.Context) (auth.Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(auth.Identity)
	if !ok || identity.ID < 1 {
		return auth.Identity{}, errors.New("no identity in context")
	}
	return identity, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

func writeValidationError(w http.ResponseWriter, fieldErrors []string) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  fieldErrors,
	})
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// Healthz is a liveness probe.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root returns a service banner with the endpoint map.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Gatherly events API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"signup":     "POST /users/signup",
			"login":      "POST /users/login",
			"users":      "GET /users",
			"events":     "GET /events",
			"register":   "POST /events/{id}/register",
			"unregister": "POST /events/{id}/unregister",
		},
	})
}

// NotFound is the fallback handler for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route "+r.URL.Path+" not found")
}
