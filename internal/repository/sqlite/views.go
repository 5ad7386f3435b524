package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
)

const detailColumns = `r.id, r.user_id, r.event_id, r.status, r.created_at, r.cancelled_at,
	e.id, e.title, e.description, e.location, e.event_date, e.capacity, e.seat_count`

// ViewRepository answers the read-only registration views.
type ViewRepository struct {
	db *sql.DB
}

// NewViewRepository constructs a ViewRepository.
func NewViewRepository(db *sql.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// ListByUser returns every registration of a user, newest first.
func (r *ViewRepository) ListByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE r.user_id = ?
		 ORDER BY r.created_at DESC, r.rowid DESC`,
		userID,
	)
}

// ListConfirmedByEvent returns the confirmed registrations of one event.
func (r *ViewRepository) ListConfirmedByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE r.event_id = ? AND r.status = 'CONFIRMED'
		 ORDER BY r.created_at DESC, r.rowid DESC`,
		eventID,
	)
}

// ListConfirmedByOwner returns the confirmed registrations across an
// organizer's events.
func (r *ViewRepository) ListConfirmedByOwner(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error) {
	return r.details(ctx,
		`SELECT `+detailColumns+`
		 FROM registrations r JOIN events e ON e.id = r.event_id
		 WHERE e.owner_id = ? AND r.status = 'CONFIRMED'
		 ORDER BY r.created_at DESC, r.rowid DESC`,
		ownerID,
	)
}

// AuditSeatCounts compares each event's counter with its confirmed rows.
// An empty eventID audits every event.
func (r *ViewRepository) AuditSeatCounts(ctx context.Context, eventID string) ([]model.SeatAudit, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT e.id, e.title, e.seat_count,
		        COUNT(CASE WHEN r.status = 'CONFIRMED' THEN 1 END)
		 FROM events e LEFT JOIN registrations r ON r.event_id = e.id
		 WHERE ? = '' OR e.id = ?
		 GROUP BY e.id
		 ORDER BY e.created_at ASC, e.id ASC`,
		eventID, eventID,
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
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list registrations", err)
	}
	defer rows.Close()

	details := []model.RegistrationDetail{}
	for rows.Next() {
		var (
			d           model.RegistrationDetail
			status      string
			createdAt   int64
			cancelledAt sql.NullInt64
			eventDate   int64
		)
		err := rows.Scan(
			&d.ID, &d.UserID, &d.EventID, &status, &createdAt, &cancelledAt,
			&d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.Location,
			&eventDate, &d.Event.Capacity, &d.Event.SeatCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		d.Status = model.RegistrationStatus(status)
		d.CreatedAt = fromMillis(createdAt)
		d.Event.EventDate = fromMillis(eventDate)
		if cancelledAt.Valid {
			t := fromMillis(cancelledAt.Int64)
			d.CancelledAt = &t
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
