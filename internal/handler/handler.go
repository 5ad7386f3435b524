// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// EventService is the event management API the handlers call.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID string, req model.CreateEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListOwnedEvents(ctx context.Context, ownerID string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, ownerID, id string, req model.UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, ownerID, id string) error
}

// Ledger registers and cancels seats.
type Ledger interface {
	Register(ctx context.Context, userID, eventID string) (*model.RegistrationDetail, error)
	Cancel(ctx context.Context, registrationID, userID string) (*model.Registration, error)
}

// Views serves the read-only registration views.
type Views interface {
	MyRegistrations(ctx context.Context, userID string) ([]model.RegistrationDetail, error)
	EventRoster(ctx context.Context, ownerID, eventID string) (*model.EventRoster, error)
	OrganizerRoster(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error)
}

// Handler holds all HTTP handlers for the registration API.
type Handler struct {
	events EventService
	ledger Ledger
	views  Views
	ping   func(context.Context) error
	log    *slog.Logger
}

// New constructs a Handler. ping may be nil.
func New(events EventService, ledger Ledger, views Views, ping func(context.Context) error, log *slog.Logger) *Handler {
	return &Handler{events: events, ledger: ledger, views: views, ping: ping, log: log}
}

// eventResponse adds the derived seat fields to an event.
type eventResponse struct {
	*model.Event
	AvailableSeats int  `json:"available_seats"`
	Full           bool `json:"is_full"`
}

func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{Event: e, AvailableSeats: e.Remaining(), Full: e.IsFull()}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// failure maps a service error to its HTTP status and error code.
// Unclassified errors are logged and hidden behind a generic 500.
func (h *Handler) failure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, model.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid_id", "malformed id")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you do not own this resource")
	case errors.Is(err, model.ErrEventFull):
		writeError(w, http.StatusConflict, "event_full", "event is fully booked")
	case errors.Is(err, model.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", "you are already registered for this event")
	case errors.Is(err, model.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", "registration is already cancelled")
	case errors.Is(err, model.ErrCapacityTooLow):
		writeError(w, http.StatusConflict, "capacity_too_low", "capacity cannot be lower than the seats already taken")
	case errors.Is(err, model.ErrTransientConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "transient_conflict", "too much contention, retry the request")
	default:
		h.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func pathID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%s: %w", name, model.ErrInvalidID)
	}
	return raw, nil
}

func identity(r *http.Request) model.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// ─── Events ───────────────────────────────────────────────────────────────────

// ListEvents handles GET /api/events
// Returns every event, soonest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventList(events))
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.failure(w, r, err)
		return
	}
	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// CreateEvent handles POST /api/events
// The caller becomes the event's owner.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), identity(r).UserID, req)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

// UpdateEvent handles PUT /api/events/{id}
// Only the fields present in the body change.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.failure(w, r, err)
		return
	}
	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), identity(r).UserID, id, req)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// DeleteEvent handles DELETE /api/events/{id}
// Removes the event and all of its registrations.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.failure(w, r, err)
		return
	}
	if err := h.events.DeleteEvent(r.Context(), identity(r).UserID, id); err != nil {
		h.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyEvents handles GET /api/events/organizer/my-events
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListOwnedEvents(r.Context(), identity(r).UserID)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventList(events))
}

func eventList(events []model.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	return out
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Register handles POST /api/registrations
// Reserves one seat on the event named in the body for the caller.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "event_id is required")
		return
	}
	if _, err := uuid.Parse(req.EventID); err != nil {
		h.failure(w, r, fmt.Errorf("event_id: %w", model.ErrInvalidID))
		return
	}

	reg, err := h.ledger.Register(r.Context(), identity(r).UserID, req.EventID)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// CancelRegistration handles DELETE /api/registrations/{registrationID}
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "registrationID")
	if err != nil {
		h.failure(w, r, err)
		return
	}
	reg, err := h.ledger.Cancel(r.Context(), id, identity(r).UserID)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// MyRegistrations handles GET /api/registrations/my
// Returns every registration of the caller, cancelled ones included.
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.views.MyRegistrations(r.Context(), identity(r).UserID)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(regs))
}

// EventRoster handles GET /api/registrations/event/{eventID}
func (h *Handler) EventRoster(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		h.failure(w, r, err)
		return
	}
	roster, err := h.views.EventRoster(r.Context(), identity(r).UserID, id)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	roster.Registrations = nonNil(roster.Registrations)
	writeJSON(w, http.StatusOK, roster)
}

// OrganizerRoster handles GET /api/registrations/all
// Returns the confirmed registrations across the caller's events.
func (h *Handler) OrganizerRoster(w http.ResponseWriter, r *http.Request) {
	regs, err := h.views.OrganizerRoster(r.Context(), identity(r).UserID)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(regs))
}

// Return an empty array rather than null for better client compatibility.
func nonNil(regs []model.RegistrationDetail) []model.RegistrationDetail {
	if regs == nil {
		return []model.RegistrationDetail{}
	}
	return regs
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /api/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
