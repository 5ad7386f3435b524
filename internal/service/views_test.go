package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_Views(t *testing.T) {
	svc, ledger, mem := newTestEventService(t)
	q := NewQueryService(mem.stores())
	ctx := context.Background()

	e1, err := svc.CreateEvent(ctx, "org-1", validCreate())
	require.NoError(t, err)
	e2, err := svc.CreateEvent(ctx, "org-1", validCreate())
	require.NoError(t, err)
	other, err := svc.CreateEvent(ctx, "org-2", validCreate())
	require.NoError(t, err)

	r1, err := ledger.Register(ctx, "user-1", e1.ID)
	require.NoError(t, err)
	r2, err := ledger.Register(ctx, "user-1", e2.ID)
	require.NoError(t, err)
	r3, err := ledger.Register(ctx, "user-2", e1.ID)
	require.NoError(t, err)
	_, err = ledger.Register(ctx, "user-2", other.ID)
	require.NoError(t, err)
	_, err = ledger.Cancel(ctx, r1.ID, "user-1")
	require.NoError(t, err)

	t.Run("my registrations include cancelled, newest first", func(t *testing.T) {
		mine, err := q.MyRegistrations(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, r2.ID, mine[0].ID)
		assert.Equal(t, r1.ID, mine[1].ID)
		assert.Equal(t, model.StatusCancelled, mine[1].Status)
		assert.Equal(t, e1.Title, mine[1].Event.Title)
	})

	t.Run("event roster is confirmed only", func(t *testing.T) {
		roster, err := q.EventRoster(ctx, "org-1", e1.ID)
		require.NoError(t, err)
		assert.Equal(t, e1.ID, roster.Event.ID)
		assert.Equal(t, 1, roster.Event.SeatCount)
		require.Len(t, roster.Registrations, 1)
		assert.Equal(t, r3.ID, roster.Registrations[0].ID)
	})

	t.Run("event roster is owner only", func(t *testing.T) {
		_, err := q.EventRoster(ctx, "org-2", e1.ID)
		assert.ErrorIs(t, err, model.ErrForbidden)

		_, err = q.EventRoster(ctx, "org-1", uuid.New().String())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("organizer roster spans owned events", func(t *testing.T) {
		all, err := q.OrganizerRoster(ctx, "org-1")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, r3.ID, all[0].ID)
		assert.Equal(t, r2.ID, all[1].ID)
	})

	t.Run("audit finds no drift", func(t *testing.T) {
		audits, err := q.AuditAll(ctx)
		require.NoError(t, err)
		require.Len(t, audits, 3)
		for _, a := range audits {
			assert.True(t, a.Consistent(), "%+v", a)
		}
	})
}

func TestQueryService_AuditSeatCount(t *testing.T) {
	svc, ledger, mem := newTestEventService(t)
	q := NewQueryService(mem.stores())
	ctx := context.Background()

	e, err := svc.CreateEvent(ctx, "org-1", validCreate())
	require.NoError(t, err)
	_, err = ledger.Register(ctx, "user-1", e.ID)
	require.NoError(t, err)

	drifted, _ := mem.event(e.ID)
	drifted.SeatCount = 3
	mem.seed(drifted)

	a, err := q.AuditSeatCount(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, a.Consistent())
	assert.Equal(t, 3, a.SeatCount)
	assert.Equal(t, 1, a.Confirmed)

	_, err = q.AuditSeatCount(ctx, uuid.New().String())
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = q.AuditSeatCount(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}
