package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
)

// memState is one snapshot of both stores.
type memState struct {
	events map[string]model.Event
	regs   map[string]model.Registration
}

func (s memState) clone() memState {
	c := memState{
		events: make(map[string]model.Event, len(s.events)),
		regs:   make(map[string]model.Registration, len(s.regs)),
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.regs {
		if v.CancelledAt != nil {
			t := *v.CancelledAt
			v.CancelledAt = &t
		}
		c.regs[k] = v
	}
	return c
}

type memTxKey struct{}

// memStore is a transactional in-memory backend. A unit of work works on a
// private copy and swaps it in on commit, so an aborted unit leaves nothing
// behind. Units are serialised by one mutex.
type memStore struct {
	mu    sync.Mutex
	state memState

	units   int
	commits int

	// onCommit, when set, runs before a unit is committed. A non-nil result
	// aborts the commit.
	onCommit func(unit int) error
	// onSeatAdjust, when set, fails AdjustSeatCount.
	onSeatAdjust error
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		events: map[string]model.Event{},
		regs:   map[string]model.Registration{},
	}}
}

func (m *memStore) stores() Stores {
	return Stores{
		Tx:            m,
		Events:        memEvents{m},
		Registrations: memRegistrations{m},
		Views:         memViews{m},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.units++

	work := m.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, &work)); err != nil {
		return err
	}
	if m.onCommit != nil {
		if err := m.onCommit(m.units); err != nil {
			return err
		}
	}
	m.state = work
	m.commits++
	return nil
}

func (m *memStore) do(ctx context.Context, fn func(s *memState) error) error {
	if st, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(st)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&m.state)
}

func (m *memStore) seed(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.events[e.ID] = e
}

func (m *memStore) event(id string) (model.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.events[id]
	return e, ok
}

func (m *memStore) registrationsOf(eventID string) []model.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, r := range m.state.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) confirmed(eventID string) int {
	n := 0
	for _, r := range m.registrationsOf(eventID) {
		if r.IsConfirmed() {
			n++
		}
	}
	return n
}

type memEvents struct{ m *memStore }

func (s memEvents) Create(ctx context.Context, e *model.Event) error {
	return s.m.do(ctx, func(st *memState) error {
		st.events[e.ID] = *e
		return nil
	})
}

func (s memEvents) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var out *model.Event
	err := s.m.do(ctx, func(st *memState) error {
		e, ok := st.events[id]
		if !ok {
			return model.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (s memEvents) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return s.GetByID(ctx, id)
}

func (s memEvents) List(ctx context.Context) ([]model.Event, error) {
	return s.list(ctx, func(model.Event) bool { return true })
}

func (s memEvents) ListByOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	return s.list(ctx, func(e model.Event) bool { return e.OwnerID == ownerID })
}

func (s memEvents) list(ctx context.Context, keep func(model.Event) bool) ([]model.Event, error) {
	out := []model.Event{}
	err := s.m.do(ctx, func(st *memState) error {
		for _, e := range st.events {
			if keep(e) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, err
}

func (s memEvents) Update(ctx context.Context, e *model.Event) error {
	return s.m.do(ctx, func(st *memState) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return model.ErrNotFound
		}
		if e.Capacity < cur.SeatCount {
			return model.ErrCapacityTooLow
		}
		cur.Title, cur.Description, cur.Location = e.Title, e.Description, e.Location
		cur.EventDate, cur.Capacity, cur.UpdatedAt = e.EventDate, e.Capacity, e.UpdatedAt
		st.events[e.ID] = cur
		return nil
	})
}

func (s memEvents) AdjustSeatCount(ctx context.Context, id string, delta int, at time.Time) error {
	if s.m.onSeatAdjust != nil {
		return s.m.onSeatAdjust
	}
	return s.m.do(ctx, func(st *memState) error {
		e, ok := st.events[id]
		if !ok {
			return model.ErrNotFound
		}
		next := e.SeatCount + delta
		if next > e.Capacity {
			return model.ErrEventFull
		}
		if next < 0 {
			return errors.New("seat count would go negative")
		}
		e.SeatCount = next
		e.UpdatedAt = at
		st.events[id] = e
		return nil
	})
}

func (s memEvents) Delete(ctx context.Context, id string) error {
	return s.m.do(ctx, func(st *memState) error {
		if _, ok := st.events[id]; !ok {
			return model.ErrNotFound
		}
		delete(st.events, id)
		for rid, r := range st.regs {
			if r.EventID == id {
				delete(st.regs, rid)
			}
		}
		return nil
	})
}

type memRegistrations struct{ m *memStore }

func (s memRegistrations) Create(ctx context.Context, r *model.Registration) error {
	return s.m.do(ctx, func(st *memState) error {
		if _, ok := st.events[r.EventID]; !ok {
			return model.ErrNotFound
		}
		for _, cur := range st.regs {
			if cur.UserID == r.UserID && cur.EventID == r.EventID && cur.IsConfirmed() && r.IsConfirmed() {
				return model.ErrAlreadyRegistered
			}
		}
		st.regs[r.ID] = *r
		return nil
	})
}

func (s memRegistrations) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	var out *model.Registration
	err := s.m.do(ctx, func(st *memState) error {
		r, ok := st.regs[id]
		if !ok {
			return model.ErrNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (s memRegistrations) GetForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return s.GetByID(ctx, id)
}

func (s memRegistrations) FindConfirmed(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	var out *model.Registration
	err := s.m.do(ctx, func(st *memState) error {
		for _, r := range st.regs {
			if r.UserID == userID && r.EventID == eventID && r.IsConfirmed() {
				out = &r
				return nil
			}
		}
		return model.ErrNotFound
	})
	return out, err
}

func (s memRegistrations) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return s.m.do(ctx, func(st *memState) error {
		r, ok := st.regs[id]
		if !ok || !r.IsConfirmed() {
			return model.ErrAlreadyCancelled
		}
		r.Status = model.StatusCancelled
		r.CancelledAt = &at
		st.regs[id] = r
		return nil
	})
}

func (s memRegistrations) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := s.m.do(ctx, func(st *memState) error {
		for id, r := range st.regs {
			if r.EventID == eventID {
				delete(st.regs, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memViews struct{ m *memStore }

func (s memViews) ListByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	return s.details(ctx, func(r model.Registration, _ model.Event) bool { return r.UserID == userID })
}

func (s memViews) ListConfirmedByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	return s.details(ctx, func(r model.Registration, _ model.Event) bool {
		return r.EventID == eventID && r.IsConfirmed()
	})
}

func (s memViews) ListConfirmedByOwner(ctx context.Context, ownerID string) ([]model.RegistrationDetail, error) {
	return s.details(ctx, func(r model.Registration, e model.Event) bool {
		return e.OwnerID == ownerID && r.IsConfirmed()
	})
}

func (s memViews) AuditSeatCounts(ctx context.Context, eventID string) ([]model.SeatAudit, error) {
	out := []model.SeatAudit{}
	err := s.m.do(ctx, func(st *memState) error {
		for _, e := range st.events {
			if eventID != "" && e.ID != eventID {
				continue
			}
			a := model.SeatAudit{EventID: e.ID, Title: e.Title, SeatCount: e.SeatCount}
			for _, r := range st.regs {
				if r.EventID == e.ID && r.IsConfirmed() {
					a.Confirmed++
				}
			}
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, err
}

func (s memViews) details(ctx context.Context, keep func(model.Registration, model.Event) bool) ([]model.RegistrationDetail, error) {
	out := []model.RegistrationDetail{}
	err := s.m.do(ctx, func(st *memState) error {
		for _, r := range st.regs {
			e := st.events[r.EventID]
			if keep(r, e) {
				out = append(out, model.RegistrationDetail{Registration: r, Event: e.Summary()})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
