package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	sqlite3lib "modernc.org/sqlite/lib"
)

const eventColumns = `id, owner_id, title, description, location, event_date,
	capacity, seat_count, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a fully populated event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Title, e.Description, e.Location, toMillis(e.EventDate),
		e.Capacity, e.SeatCount, toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		return classify("insert event", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, classify("get event", err)
	}
	return e, nil
}

// GetForUpdate reads the event inside the caller's transaction. The IMMEDIATE
// transaction already owns the write lock, so no row lock is needed.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return r.GetByID(ctx, id)
}

// List returns all events ordered by event date, soonest first.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, created_at ASC`)
}

// ListByOwner returns the events owned by one organizer, soonest first.
func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = ?
		 ORDER BY event_date ASC, created_at ASC`,
		ownerID,
	)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
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

// Update writes the editable fields and capacity. A capacity below the current
// seat count is model.ErrCapacityTooLow.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, location = ?, event_date = ?,
		     capacity = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Location, toMillis(e.EventDate),
		e.Capacity, toMillis(e.UpdatedAt), e.ID,
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_CHECK) {
			return model.ErrCapacityTooLow
		}
		return classify("update event", err)
	}
	return requireRow(res)
}

// AdjustSeatCount moves the seat counter by delta. An increment past capacity
// is model.ErrEventFull.
func (r *EventRepository) AdjustSeatCount(ctx context.Context, id string, delta int, at time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE events SET seat_count = seat_count + ?, updated_at = ? WHERE id = ?`,
		delta, toMillis(at), id,
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_CHECK) && delta > 0 {
			return model.ErrEventFull
		}
		return classify("adjust seat count", err)
	}
	return requireRow(res)
}

// Delete removes an event and, through the foreign key, its registrations.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return classify("delete event", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                          model.Event
		date, createdAt, updatedAt int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &date,
		&e.Capacity, &e.SeatCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.EventDate = fromMillis(date)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
