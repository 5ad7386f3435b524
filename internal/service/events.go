package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/event-ledger/internal/clock"
	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxCapacity = 100_000

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	units         unitRunner
	clock         clock.Clock
	log           *slog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(stores Stores, clk clock.Clock, budget config.LedgerConfig, log *slog.Logger) *EventService {
	return &EventService{
		events:        stores.Events,
		registrations: stores.Registrations,
		units:         newUnitRunner(stores.Tx, budget, log),
		clock:         clk,
		log:           log,
	}
}

// CreateEvent validates the request and stores a new event with no seats taken.
func (s *EventService) CreateEvent(ctx context.Context, ownerID string, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)

	switch {
	case req.Title == "":
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	case req.Location == "":
		return nil, fmt.Errorf("%w: location is required", model.ErrValidation)
	case req.EventDate.IsZero():
		return nil, fmt.Errorf("%w: event_date is required", model.ErrValidation)
	}
	if err := validateCapacity(req.Capacity); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := &model.Event{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   req.EventDate.UTC(),
		Capacity:    req.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("owner_id", ownerID),
		slog.Int("capacity", event.Capacity),
	)
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrValidation)
	}
	return s.events.GetByID(ctx, id)
}

// ListEvents returns all events, soonest first.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// ListOwnedEvents returns the events an organizer created.
func (s *EventService) ListOwnedEvents(ctx context.Context, ownerID string) ([]model.Event, error) {
	return s.events.ListByOwner(ctx, ownerID)
}

// UpdateEvent applies the non-nil fields of req. Only the owner may edit an
// event, and capacity may never drop below the seats already taken. The
// check and the write happen under the event lock, so a concurrent
// registration cannot slip in between them.
func (s *EventService) UpdateEvent(ctx context.Context, ownerID, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := validatePatch(&req); err != nil {
		return nil, err
	}

	var result *model.Event
	err := s.units.run(ctx, "events.update", func(ctx context.Context) error {
		event, err := s.events.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.OwnerID != ownerID {
			return model.ErrForbidden
		}

		if req.Title != nil {
			event.Title = *req.Title
		}
		if req.Description != nil {
			event.Description = *req.Description
		}
		if req.Location != nil {
			event.Location = *req.Location
		}
		if req.EventDate != nil {
			event.EventDate = req.EventDate.UTC()
		}
		if req.Capacity != nil {
			if *req.Capacity < event.SeatCount {
				return model.ErrCapacityTooLow
			}
			event.Capacity = *req.Capacity
		}
		event.UpdatedAt = s.clock.Now()

		if err := s.events.Update(ctx, event); err != nil {
			return err
		}
		result = event
		return nil
	}, attribute.String("event.id", id))
	if err != nil {
		return nil, err
	}

	s.log.Info("event updated",
		slog.String("event_id", id),
		slog.Int("capacity", result.Capacity),
		slog.Int("seat_count", result.SeatCount),
	)
	return result, nil
}

// DeleteEvent removes an event together with all of its registrations in
// one unit of work.
func (s *EventService) DeleteEvent(ctx context.Context, ownerID, id string) error {
	var removed int64
	err := s.units.run(ctx, "events.delete", func(ctx context.Context) error {
		event, err := s.events.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.OwnerID != ownerID {
			return model.ErrForbidden
		}
		removed, err = s.registrations.DeleteByEvent(ctx, id)
		if err != nil {
			return err
		}
		return s.events.Delete(ctx, id)
	}, attribute.String("event.id", id))
	if err != nil {
		return err
	}

	s.log.Info("event deleted",
		slog.String("event_id", id),
		slog.Int64("registrations_removed", removed),
	)
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", model.ErrValidation)
	}
	if capacity > maxCapacity {
		return fmt.Errorf("%w: capacity cannot exceed 100,000", model.ErrValidation)
	}
	return nil
}

func validatePatch(req *model.UpdateEventRequest) error {
	var err error
	if req.Title, err = trimRequired("title", req.Title); err != nil {
		return err
	}
	if req.Location, err = trimRequired("location", req.Location); err != nil {
		return err
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		req.Description = &d
	}
	if req.EventDate != nil && req.EventDate.IsZero() {
		return fmt.Errorf("%w: event_date cannot be empty", model.ErrValidation)
	}
	if req.Capacity != nil {
		return validateCapacity(*req.Capacity)
	}
	return nil
}

func trimRequired(name string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil, fmt.Errorf("%w: %s cannot be empty", model.ErrValidation, name)
	}
	return &t, nil
}
