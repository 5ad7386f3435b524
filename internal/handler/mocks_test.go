package handler

import (
	"context"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/stretchr/testify/mock"
)

type mockEvents struct{ mock.Mock }

func (m *mockEvents) CreateEvent(ctx context.Context, ownerID string, req model.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, ownerID, req)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) ListEvents(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) ListOwnedEvents(ctx context.Context, ownerID string) ([]model.Event, error) {
	args := m.Called(ctx, ownerID)
	e, _ := args.Get(0).([]model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) UpdateEvent(ctx context.Context, ownerID, id string, req model.UpdateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, ownerID, id, req)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) DeleteEvent(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Register(ctx context.Context, userID, eventID string) (*model.RegistrationDetail, error) {
	args := m.Called(ctx, userID, eventID)
	r, _ := args.Get(0).(*model.RegistrationDetail)
	return r, args.Error(1)
}

func (m *mockLedger) Cancel(ctx context.Context, registrationID, userID string) (*model.Registration, error) {
	args := m.Called(ctx, registrationID, userID)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

type mockViews struct{ mock.Mock }

func (m *mockViews) MyRegistrations(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]model.RegistrationDetail)
	return r, args.Error(1)
}

func (m *mockViews) EventRoster(ctx context.Context, ownerID, eventID string) (*model.EventRoster, error) {
	args := m.Called(ctx, ownerID, eventID)
	r, _ := args.Get(0).(*model.EventRoster)
	return r, args.Error(1)
}

func (m *mockViews) OrganizerRoster(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error) {
	args := m.Called(ctx, ownerID)
	r, _ := args.Get(0).([]model.RegistrationDetail)
	return r, args.Error(1)
}
