// Package clock lets services take the current time from an injectable source.
package clock

import (
	"sync"
	"time"
)

// Clock allows injecting time in services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Stepped returns a fixed start instant that advances by step on every call,
// so records created in sequence get strictly increasing timestamps in tests.
type Stepped struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepped builds a Stepped clock.
func NewStepped(start time.Time, step time.Duration) *Stepped {
	return &Stepped{now: start.UTC(), step: step}
}

func (s *Stepped) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now
	s.now = s.now.Add(s.step)
	return now
}
