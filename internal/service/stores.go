// Package service implements the registration ledger, event management and
// the read-only registration views on top of the store interfaces below.
// Both the PostgreSQL and the SQLite repositories satisfy them.
package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
)

// TxRunner opens an atomic unit of work. Store calls made with the context
// handed to fn join that unit.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore persists events. GetForUpdate must serialise concurrent writers
// of the same event until the surrounding unit of work ends.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	AdjustSeatCount(ctx context.Context, id string, delta int, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	Create(ctx context.Context, r *model.Registration) error
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	GetForUpdate(ctx context.Context, id string) (*model.Registration, error)
	FindConfirmed(ctx context.Context, userID, eventID string) (*model.Registration, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// ViewStore answers the read-only registration views.
type ViewStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error)
	ListConfirmedByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error)
	ListConfirmedByOwner(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error)
	AuditSeatCounts(ctx context.Context, eventID string) ([]model.SeatAudit, error)
}

// Stores groups one backend's implementations.
type Stores struct {
	Tx            TxRunner
	Events        EventStore
	Registrations RegistrationStore
	Views         ViewStore
}
