package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, owner_id, title, description, location, event_date,
	capacity, seat_count, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a fully populated event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OwnerID, e.Title, e.Description, e.Location, e.EventDate,
		e.Capacity, e.SeatCount, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return classify("insert event", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetForUpdate reads the event and holds its row lock until the surrounding
// transaction ends. Every ledger operation takes this lock first, which
// serialises all seat changes for one event and fixes the lock order
// (event row, then registration row).
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) get(ctx context.Context, query, id string) (*model.Event, error) {
	e, err := scanEvent(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, classify("get event", err)
	}
	return e, nil
}

// List returns all events ordered by event date, soonest first.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, created_at ASC`)
}

// ListByOwner returns the events owned by one organizer, soonest first.
func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = $1
		 ORDER BY event_date ASC, created_at ASC`,
		ownerID,
	)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update writes the editable fields and capacity. A capacity below the
// current seat count violates events_seat_count_bounds and is reported as
// model.ErrCapacityTooLow.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, location = $4, event_date = $5,
		     capacity = $6, updated_at = $7
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Location, e.EventDate, e.Capacity, e.UpdatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == codeCheckViolation {
			return model.ErrCapacityTooLow
		}
		return classify("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AdjustSeatCount moves the seat counter by delta. The bounds constraint is
// the last line of defence: an increment past capacity is model.ErrEventFull.
func (r *EventRepository) AdjustSeatCount(ctx context.Context, id string, delta int, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE events SET seat_count = seat_count + $2, updated_at = $3 WHERE id = $1`,
		id, delta, at,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == codeCheckViolation && delta > 0 {
			return model.ErrEventFull
		}
		return classify("adjust seat count", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes an event. Its registrations go with it (ON DELETE CASCADE).
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return classify("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &e.EventDate,
		&e.Capacity, &e.SeatCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.EventDate = e.EventDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
