package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	sqlite3lib "modernc.org/sqlite/lib"
)

const registrationColumns = `id, user_id, event_id, status, created_at, cancelled_at`

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration. A second CONFIRMED row for the same user and
// event returns model.ErrAlreadyRegistered.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	var cancelledAt sql.NullInt64
	if reg.CancelledAt != nil {
		cancelledAt = sql.NullInt64{Int64: toMillis(*reg.CancelledAt), Valid: true}
	}
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.UserID, reg.EventID, string(reg.Status), toMillis(reg.CreatedAt), cancelledAt,
	)
	if err != nil {
		switch {
		case isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE):
			return model.ErrAlreadyRegistered
		case isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY):
			return model.ErrNotFound
		}
		return classify("insert registration", err)
	}
	return nil
}

// GetByID returns a single registration or model.ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	return r.get(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
}

// GetForUpdate is GetByID; the surrounding IMMEDIATE transaction serialises writers.
func (r *RegistrationRepository) GetForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return r.GetByID(ctx, id)
}

// FindConfirmed returns the user's seat-holding registration for an event.
func (r *RegistrationRepository) FindConfirmed(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	return r.get(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = ? AND event_id = ? AND status = 'CONFIRMED'`,
		userID, eventID,
	)
}

func (r *RegistrationRepository) get(ctx context.Context, query string, args ...any) (*model.Registration, error) {
	reg, err := scanRegistration(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, classify("get registration", err)
	}
	return reg, nil
}

// MarkCancelled flips a CONFIRMED registration to CANCELLED, or returns
// model.ErrAlreadyCancelled.
func (r *RegistrationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE registrations SET status = 'CANCELLED', cancelled_at = ?
		 WHERE id = ? AND status = 'CONFIRMED'`,
		toMillis(at), id,
	)
	if err != nil {
		return classify("cancel registration", err)
	}
	if err := requireRow(res); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrAlreadyCancelled
		}
		return err
	}
	return nil
}

// CountConfirmed returns the number of seat-holding registrations for an event.
func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'CONFIRMED'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, classify("count registrations", err)
	}
	return n, nil
}

// DeleteByEvent removes every registration of an event.
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM registrations WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, classify("delete registrations", err)
	}
	return res.RowsAffected()
}

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		reg         model.Registration
		status      string
		createdAt   int64
		cancelledAt sql.NullInt64
	)
	if err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &status, &createdAt, &cancelledAt); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationStatus(status)
	reg.CreatedAt = fromMillis(createdAt)
	if cancelledAt.Valid {
		t := fromMillis(cancelledAt.Int64)
		reg.CancelledAt = &t
	}
	return &reg, nil
}
