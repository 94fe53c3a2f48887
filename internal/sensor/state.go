// Package sensor polls a serial-attached temperature sensor and publishes the
// latest reading for concurrent readers.
package sensor

import (
	"sync"
	"time"
)

// Source tells callers where a temperature came from.
type Source string

const (
	SourceSensor  Source = "sensor"
	SourceDefault Source = "default"
)

// Snapshot is a consistent view of State.
type Snapshot struct {
	Temperature float64
	HasValue    bool
	Active      bool
	UpdatedAt   time.Time
}

// State holds the latest sensor reading. The poller is its only writer;
// any number of goroutines may read it.
type State struct {
	mu sync.RWMutex

	temperature float64
	hasValue    bool
	active      bool
	updatedAt   time.Time
}

// NewState returns a State with no value and an inactive sensor.
func NewState() *State {
	return &State{}
}

// Snapshot returns the current state as a single consistent value.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Temperature: s.temperature,
		HasValue:    s.hasValue,
		Active:      s.active,
		UpdatedAt:   s.updatedAt,
	}
}

// Latest returns the live reading, or fallback whenever the sensor is not
// active or has not produced a value on the current connection.
func (s *State) Latest(fallback float64) (float64, Source) {
	snap := s.Snapshot()
	if snap.Active && snap.HasValue {
		return snap.Temperature, SourceSensor
	}
	return fallback, SourceDefault
}

func (s *State) markConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
}

// markDisconnected also drops the last value; it is stale once the link is lost.
func (s *State) markDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.hasValue = false
	s.temperature = 0
}

func (s *State) publish(temperature float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = temperature
	s.hasValue = true
	s.updatedAt = at
}
