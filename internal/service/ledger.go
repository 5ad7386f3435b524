package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/event-ledger/internal/clock"
	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Ledger is the only writer of seat counts and registrations. Every operation
// runs as one atomic unit spanning both stores, so the seat counter of an
// event always equals its number of CONFIRMED registrations.
type Ledger struct {
	events        EventStore
	registrations RegistrationStore
	units         unitRunner
	clock         clock.Clock
	log           *slog.Logger
}

// NewLedger constructs a Ledger with its dependencies.
func NewLedger(stores Stores, clk clock.Clock, budget config.LedgerConfig, log *slog.Logger) *Ledger {
	return &Ledger{
		events:        stores.Events,
		registrations: stores.Registrations,
		units:         newUnitRunner(stores.Tx, budget, log),
		clock:         clk,
		log:           log,
	}
}

// Register reserves one seat on an event for a user.
//
// The event row is locked before anything is read, which serialises every
// register and cancel on that event while leaving other events untouched:
//
//	A: lock event (seat_count=0, capacity=1)
//	B: lock event ... blocked
//	A: insert registration, seat_count=1, commit
//	B: ... lock acquired, seat_count=1 >= capacity → ErrEventFull
//
// The partial unique index on CONFIRMED registrations and the seat_count
// bounds check stay in place underneath as a backstop, and map to
// ErrAlreadyRegistered and ErrEventFull if they ever fire.
func (l *Ledger) Register(ctx context.Context, userID, eventID string) (*model.RegistrationDetail, error) {
	userID = strings.TrimSpace(userID)
	eventID = strings.TrimSpace(eventID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	if eventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", model.ErrValidation)
	}

	var result *model.RegistrationDetail
	err := l.units.run(ctx, "ledger.register", func(ctx context.Context) error {
		result = nil

		event, err := l.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.IsFull() {
			return model.ErrEventFull
		}

		if _, err := l.registrations.FindConfirmed(ctx, userID, eventID); err == nil {
			return model.ErrAlreadyRegistered
		} else if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		now := l.clock.Now()
		reg := &model.Registration{
			ID:        uuid.New().String(),
			UserID:    userID,
			EventID:   eventID,
			Status:    model.StatusConfirmed,
			CreatedAt: now,
		}
		if err := l.registrations.Create(ctx, reg); err != nil {
			return err
		}
		if err := l.events.AdjustSeatCount(ctx, eventID, 1, now); err != nil {
			return err
		}

		event.SeatCount++
		result = &model.RegistrationDetail{Registration: *reg, Event: event.Summary()}
		return nil
	},
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	)
	if err != nil {
		return nil, err
	}

	l.log.Info("registration confirmed",
		slog.String("registration_id", result.ID),
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
		slog.Int("seat_count", result.Event.SeatCount),
	)
	return result, nil
}

// Cancel marks a registration CANCELLED and releases its seat. Only the user
// holding the registration may cancel it, and a second cancel is reported as
// ErrAlreadyCancelled rather than ignored.
//
// Locks are taken event first, registration second, the same order Register
// uses, so the two never deadlock each other.
func (l *Ledger) Cancel(ctx context.Context, registrationID, userID string) (*model.Registration, error) {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return nil, fmt.Errorf("%w: registration id is required", model.ErrValidation)
	}

	var result *model.Registration
	err := l.units.run(ctx, "ledger.cancel", func(ctx context.Context) error {
		result = nil

		current, err := l.registrations.GetByID(ctx, registrationID)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return model.ErrForbidden
		}

		event, err := l.events.GetForUpdate(ctx, current.EventID)
		if err != nil {
			return err
		}
		reg, err := l.registrations.GetForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if !reg.IsConfirmed() {
			return model.ErrAlreadyCancelled
		}

		now := l.clock.Now()
		if err := l.registrations.MarkCancelled(ctx, reg.ID, now); err != nil {
			return err
		}
		if event.SeatCount > 0 {
			if err := l.events.AdjustSeatCount(ctx, event.ID, -1, now); err != nil {
				return err
			}
		} else {
			l.log.Warn("seat count already zero on cancel",
				slog.String("event_id", event.ID),
				slog.String("registration_id", reg.ID),
			)
		}

		reg.Status = model.StatusCancelled
		reg.CancelledAt = &now
		result = reg
		return nil
	},
		attribute.String("registration.id", registrationID),
		attribute.String("user.id", userID),
	)
	if err != nil {
		return nil, err
	}

	l.log.Info("registration cancelled",
		slog.String("registration_id", result.ID),
		slog.String("event_id", result.EventID),
		slog.String("user_id", userID),
	)
	return result, nil
}
