package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
)

// QueryService serves the read-only registration views. Results reflect the
// last committed ledger operation; nothing here locks or writes.
type QueryService struct {
	events EventStore
	views  ViewStore
}

// NewQueryService constructs a QueryService.
func NewQueryService(stores Stores) *QueryService {
	return &QueryService{events: stores.Events, views: stores.Views}
}

// MyRegistrations returns every registration of a user, cancelled ones
// included, newest first.
func (s *QueryService) MyRegistrations(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	return s.views.ListByUser(ctx, userID)
}

// EventRoster returns the confirmed registrations of one event. Only the
// event's owner may read it.
func (s *QueryService) EventRoster(ctx context.Context, ownerID, eventID string) (*model.EventRoster, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != ownerID {
		return nil, model.ErrForbidden
	}

	regs, err := s.views.ListConfirmedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event roster: %w", err)
	}
	return &model.EventRoster{Event: event.Summary(), Registrations: regs}, nil
}

// OrganizerRoster returns the confirmed registrations across every event the
// organizer owns.
func (s *QueryService) OrganizerRoster(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error) {
	return s.views.ListConfirmedByOwner(ctx, ownerID)
}

// AuditSeatCount compares one event's seat counter with its confirmed rows.
// Drift is reported, never repaired.
func (s *QueryService) AuditSeatCount(ctx context.Context, eventID string) (model.SeatAudit, error) {
	if strings.TrimSpace(eventID) == "" {
		return model.SeatAudit{}, fmt.Errorf("%w: event id is required", model.ErrValidation)
	}
	audits, err := s.views.AuditSeatCounts(ctx, eventID)
	if err != nil {
		return model.SeatAudit{}, err
	}
	if len(audits) == 0 {
		return model.SeatAudit{}, model.ErrNotFound
	}
	return audits[0], nil
}

// AuditAll audits every event.
func (s *QueryService) AuditAll(ctx context.Context) ([]model.SeatAudit, error) {
	return s.views.AuditSeatCounts(ctx, "")
}
