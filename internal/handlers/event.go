package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/storage"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxImageMemory = 8 << 20
	maxImageBytes  = 10 << 20
	formFieldImage = "image"
)

// EventHandler provides HTTP handlers for events and registrations.
type EventHandler struct {
	eventService        *services.EventService
	registrationService *services.RegistrationService
	activity            *services.ActivityPublisher
	images              *storage.Storage
}

// NewEventHandler constructs an EventHandler. activity and images may be
// nil when the corresponding backend is not configured.
func NewEventHandler(
	eventService *services.EventService,
	registrationService *services.RegistrationService,
	activity *services.ActivityPublisher,
	images *storage.Storage,
) *EventHandler {
	return &EventHandler{
		eventService:        eventService,
		registrationService: registrationService,
		activity:            activity,
		images:              images,
	}
}

// EventRouter registers event routes on the given router. Reads are
// public; every mutating route sits behind the auth middleware.
func EventRouter(
	r chi.Router,
	eventService *services.EventService,
	registrationService *services.RegistrationService,
	activity *services.ActivityPublisher,
	images *storage.Storage,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewEventHandler(eventService, registrationService, activity, images)

	r.Get("/", handler.ListEvents)
	r.With(authMiddleware).Post("/", handler.CreateEvent)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", handler.GetEvent)
		r.With(authMiddleware).Put("/", handler.UpdateEvent)
		r.With(authMiddleware).Delete("/", handler.DeleteEvent)
		r.With(authMiddleware).Post("/register", handler.RegisterForEvent)
		r.With(authMiddleware).Post("/unregister", handler.UnregisterFromEvent)
		r.Get("/image", handler.GetEventImage)
		r.With(authMiddleware).Put("/image", handler.UploadEventImage)
	})
}

// ListEvents returns all events ordered by date.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, EventListResponse{
		Success: true,
		Message: "Events retrieved successfully",
		Events:  events,
		Count:   len(events),
	})
}

// GetEvent returns a single event by id.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{
		Success: true,
		Message: "Event retrieved successfully",
		Event:   event,
	})
}

// CreateEvent creates an event owned by the authenticated identity.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	req, fieldErrors := parseEventBody(r)
	if len(fieldErrors) > 0 {
		writeValidationError(w, fieldErrors)
		return
	}

	ownerID := identity.ID
	event, err := h.eventService.Create(r.Context(), types.Event{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Date:        req.Date,
		UserID:      &ownerID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, EventResponse{
		Success: true,
		Message: "Event created successfully",
		Event:   event,
	})
}

// UpdateEvent updates an event. Only the recorded owner may update;
// events without an owner can never pass the check.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !h.requireOwner(w, r, event) {
		return
	}

	req, fieldErrors := parseEventBody(r)
	if len(fieldErrors) > 0 {
		writeValidationError(w, fieldErrors)
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Address = req.Address
	event.Date = req.Date

	updated, err := h.eventService.Update(r.Context(), event)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{
		Success: true,
		Message: "Event updated successfully",
		Event:   updated,
	})
}

// DeleteEvent deletes an event, owner only. The stored image, if any,
// is removed best-effort after the row is gone.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !h.requireOwner(w, r, event) {
		return
	}

	if err := h.eventService.Delete(r.Context(), event.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	if h.images != nil && event.ImageKey != "" {
		if err := h.images.Delete(r.Context(), event.ImageKey); err != nil {
			log.Printf("event %d: failed to delete image %q: %v", event.ID, event.ImageKey, err)
		}
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Event deleted successfully",
	})
}

// RegisterForEvent registers the authenticated identity for the event.
// The identity is the only permissible user id; it is never taken from
// request input.
func (h *EventHandler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if _, err := h.registrationService.Register(r.Context(), identity.ID, event.ID); err != nil {
		if errors.Is(err, services.ErrAlreadyRegistered) {
			writeError(w, http.StatusBadRequest, "User already registered for this event")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to register for event")
		return
	}

	if h.activity != nil {
		h.activity.Publish(r.Context(), identity.ID, event.ID, services.ActionRegistered)
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "User registered for event successfully",
	})
}

// UnregisterFromEvent removes the authenticated identity's registration.
func (h *EventHandler) UnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	if err := h.registrationService.Unregister(r.Context(), identity.ID, event.ID); err != nil {
		if errors.Is(err, services.ErrNotRegistered) {
			writeError(w, http.StatusBadRequest, "User is not registered for this event")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to unregister from event")
		return
	}

	if h.activity != nil {
		h.activity.Publish(r.Context(), identity.ID, event.ID, services.ActionUnregistered)
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "User unregistered from event successfully",
	})
}

// UploadEventImage stores an event image in object storage, owner only.
func (h *EventHandler) UploadEventImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusNotImplemented, "Image storage is not configured")
		return
	}

	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !h.requireOwner(w, r, event) {
		return
	}

	filename, data, contentType, err := parseImageForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("events/%d/%s", event.ID, filename)
	if err := h.images.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	if err := h.eventService.SetImageKey(r.Context(), event.ID, key); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record image")
		return
	}

	if event.ImageKey != "" && event.ImageKey != key {
		if err := h.images.Delete(r.Context(), event.ImageKey); err != nil {
			log.Printf("event %d: failed to delete replaced image %q: %v", event.ID, event.ImageKey, err)
		}
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Image uploaded successfully",
	})
}

// GetEventImage streams the stored event image.
func (h *EventHandler) GetEventImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusNotImplemented, "Image storage is not configured")
		return
	}

	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if event.ImageKey == "" {
		writeError(w, http.StatusNotFound, "Event has no image")
		return
	}

	object, err := h.images.Get(r.Context(), event.ImageKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch image")
		return
	}
	defer object.Close()

	contentType := mime.TypeByExtension(filepath.Ext(event.ImageKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object)
}

// loadEvent resolves the {eventID} URL parameter to an event, writing
// the error response itself when it cannot.
func (h *EventHandler) loadEvent(w http.ResponseWriter, r *http.Request) (types.Event, bool) {
	id, err := parseIDParam(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Event{}, false
	}

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return types.Event{}, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch event")
		return types.Event{}, false
	}
	return event, true
}

// requireOwner enforces the ownership check: the authenticated identity
// must equal the event's recorded owner. Ownership is never evaluated
// without an identity, so a 401 always precedes a 403.
func (h *EventHandler) requireOwner(w http.ResponseWriter, r *http.Request, event types.Event) bool {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return false
	}
	if event.UserID == nil || *event.UserID != identity.ID {
		writeError(w, http.StatusForbidden, "You are not authorized to modify this event")
		return false
	}
	return true
}

type EventUpsertRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Date        time.Time `json:"date"`
}

type EventResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Event   types.Event `json:"event"`
}

type EventListResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Events  []types.Event `json:"events"`
	Count   int           `json:"count"`
}

func parseEventBody(r *http.Request) (EventUpsertRequest, []string) {
	var req EventUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return EventUpsertRequest{}, []string{"Request body is required"}
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Address = strings.TrimSpace(req.Address)

	var fieldErrors []string
	if req.Title == "" {
		fieldErrors = append(fieldErrors, "Title is required")
	}
	if req.Address == "" {
		fieldErrors = append(fieldErrors, "Address is required")
	}
	if req.Date.IsZero() {
		fieldErrors = append(fieldErrors, "Date is required")
	}
	return req, fieldErrors
}

func parseImageForm(r *http.Request) (filename string, data []byte, contentType string, err error) {
	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		return "", nil, "", errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return "", nil, "", errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		return "", nil, "", errors.New("image file is required")
	}
	if len(files) > 1 {
		return "", nil, "", errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, "", errors.New("failed to read image file")
	}
	defer file.Close()

	limited := io.LimitReader(file, maxImageBytes+1)
	data, err = io.ReadAll(limited)
	if err != nil {
		return "", nil, "", errors.New("failed to read image file")
	}
	if int64(len(data)) > maxImageBytes {
		return "", nil, "", errors.New("image file too large")
	}

	name := filepath.Base(fileHeader.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", nil, "", errors.New("invalid image filename")
	}

	contentType = fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return name, data, contentType, nil
}
