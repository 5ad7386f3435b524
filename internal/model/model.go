// Package model defines the core domain types for the event registration ledger.
package model

import "time"

// Event represents a capacity-limited event published by an organizer.
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
	Capacity    int       `json:"capacity"`
	SeatCount   int       `json:"seat_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	if e.SeatCount >= e.Capacity {
		return 0
	}
	return e.Capacity - e.SeatCount
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.SeatCount >= e.Capacity
}

// Summary returns the event fields attached to registration views.
func (e *Event) Summary() EventSummary {
	return EventSummary{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		EventDate:   e.EventDate,
		Capacity:    e.Capacity,
		SeatCount:   e.SeatCount,
	}
}

// EventSummary is the subset of an event joined onto registrations.
type EventSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
	Capacity    int       `json:"capacity,omitempty"`
	SeatCount   int       `json:"seat_count,omitempty"`
}

// RegistrationStatus is the lifecycle state of a registration.
// The only transition is CONFIRMED -> CANCELLED.
type RegistrationStatus string

const (
	StatusConfirmed RegistrationStatus = "CONFIRMED"
	StatusCancelled RegistrationStatus = "CANCELLED"
)

// Registration represents one seat reservation attempt by a user.
// Rows are never reused: registering again after a cancellation creates a new row.
type Registration struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	EventID     string             `json:"event_id"`
	Status      RegistrationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
}

// IsConfirmed reports whether the registration currently holds a seat.
func (r *Registration) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// RegistrationDetail is a registration joined with its event summary.
type RegistrationDetail struct {
	Registration
	Event EventSummary `json:"event"`
}

// EventRoster is the organizer view of one event and its confirmed registrations.
type EventRoster struct {
	Event         EventSummary         `json:"event"`
	Registrations []RegistrationDetail `json:"registrations"`
}

// SeatAudit compares an event's seat counter with its confirmed registrations.
type SeatAudit struct {
	EventID   string `json:"event_id"`
	Title     string `json:"title"`
	SeatCount int    `json:"seat_count"`
	Confirmed int    `json:"confirmed"`
}

// Consistent reports whether the counter matches the confirmed rows.
func (a SeatAudit) Consistent() bool {
	return a.SeatCount == a.Confirmed
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
	Capacity    int       `json:"capacity"`
}

// UpdateEventRequest carries the fields an organizer wants to change.
// Nil fields are left untouched.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	EventID string `json:"event_id"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
