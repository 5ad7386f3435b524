package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `id, user_id, event_id, status, created_at, cancelled_at`

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration. A second CONFIRMED row for the same user and
// event trips registrations_one_confirmed_idx and returns
// model.ErrAlreadyRegistered; a missing event returns model.ErrNotFound.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.UserID, reg.EventID, string(reg.Status), reg.CreatedAt, reg.CancelledAt,
	)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case codeUniqueViolation:
			return model.ErrAlreadyRegistered
		case codeForeignKeyViolation:
			return model.ErrNotFound
		}
		return classify("insert registration", err)
	}
	return nil
}

// GetByID returns a single registration or model.ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	return r.get(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
}

// GetForUpdate locks the registration row. Callers must already hold the lock
// on its event.
func (r *RegistrationRepository) GetForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return r.get(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id)
}

func (r *RegistrationRepository) get(ctx context.Context, query string, args ...any) (*model.Registration, error) {
	reg, err := scanRegistration(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, classify("get registration", err)
	}
	return reg, nil
}

// FindConfirmed returns the user's seat-holding registration for an event,
// or model.ErrNotFound when there is none.
func (r *RegistrationRepository) FindConfirmed(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	return r.get(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1 AND event_id = $2 AND status = 'CONFIRMED'`,
		userID, eventID,
	)
}

// MarkCancelled flips a CONFIRMED registration to CANCELLED. If the row is no
// longer confirmed it returns model.ErrAlreadyCancelled and changes nothing.
func (r *RegistrationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE registrations SET status = 'CANCELLED', cancelled_at = $2
		 WHERE id = $1 AND status = 'CONFIRMED'`,
		id, at,
	)
	if err != nil {
		return classify("cancel registration", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyCancelled
	}
	return nil
}

// CountConfirmed returns the number of seat-holding registrations for an event.
func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'CONFIRMED'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, classify("count registrations", err)
	}
	return n, nil
}

// DeleteByEvent removes every registration of an event and reports how many
// rows went.
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, classify("delete registrations", err)
	}
	return tag.RowsAffected(), nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var (
		reg    model.Registration
		status string
	)
	if err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &status, &reg.CreatedAt, &reg.CancelledAt); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationStatus(status)
	reg.CreatedAt = reg.CreatedAt.UTC()
	if reg.CancelledAt != nil {
		t := reg.CancelledAt.UTC()
		reg.CancelledAt = &t
	}
	return &reg, nil
}
