package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const detailColumns = `r.id, r.user_id, r.event_id, r.status, r.created_at, r.cancelled_at,
	e.id, e.title, e.description, e.location, e.event_date, e.capacity, e.seat_count`

// ViewRepository answers the read-only registration views. It never locks.
type ViewRepository struct {
	db *pgxpool.Pool
}

// NewViewRepository constructs a ViewRepository.
func NewViewRepository(db *pgxpool.Pool) *ViewRepository {
	return &ViewRepository{db: db}
}

// ListByUser returns every registration of a user, in any status, newest first.
func (r *ViewRepository) ListByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE r.user_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`,
		userID,
	)
}

// ListConfirmedByEvent returns the confirmed registrations of one event,
// newest first.
func (r *ViewRepository) ListConfirmedByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE r.event_id = $1 AND r.status = 'CONFIRMED'
		 ORDER BY r.created_at DESC, r.id DESC`,
		eventID,
	)
}

// ListConfirmedByOwner returns the confirmed registrations across every event
// an organizer owns, newest first.
func (r *ViewRepository) ListConfirmedByOwner(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE e.owner_id = $1 AND r.status = 'CONFIRMED'
		 ORDER BY r.created_at DESC, r.id DESC`,
		ownerID,
	)
}

// AuditSeatCounts compares each event's counter with its confirmed rows.
// An empty eventID audits every event.
func (r *ViewRepository) AuditSeatCounts(ctx context.Context, eventID string) ([]model.SeatAudit, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT e.id, e.title, e.seat_count,
		        COUNT(r.id) FILTER (WHERE r.status = 'CONFIRMED')
		 FROM events e LEFT JOIN registrations r ON r.event_id = e.id
		 WHERE $1 = '' OR e.id::text = $1
		 GROUP BY e.id
		 ORDER BY e.created_at ASC, e.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, classify("audit seat counts", err)
	}
	defer rows.Close()

	audits := []model.SeatAudit{}
	for rows.Next() {
		var a model.SeatAudit
		if err := rows.Scan(&a.EventID, &a.Title, &a.SeatCount, &a.Confirmed); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

func (r *ViewRepository) details(ctx context.Context, query string, args ...any) ([]model.RegistrationDetail, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list registrations", err)
	}
	defer rows.Close()

	details := []model.RegistrationDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanDetail(row pgx.Row) (model.RegistrationDetail, error) {
	var (
		d      model.RegistrationDetail
		status string
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.EventID, &status, &d.CreatedAt, &d.CancelledAt,
		&d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.Location,
		&d.Event.EventDate, &d.Event.Capacity, &d.Event.SeatCount,
	)
	if err != nil {
		return d, err
	}
	d.Status = model.RegistrationStatus(status)
	d.CreatedAt = d.CreatedAt.UTC()
	d.Event.EventDate = d.Event.EventDate.UTC()
	if d.CancelledAt != nil {
		t := d.CancelledAt.UTC()
		d.CancelledAt = &t
	}
	return d, nil
}
