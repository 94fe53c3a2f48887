package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-predictor/internal/sensor"
)

var (
	// ErrNotFound is returned when no readings match a query.
	ErrNotFound = errors.New("no sensor readings available")
)

// MemoryStore is a concurrency-safe in-memory history of sensor readings.
// Readings are expected to be saved in timestamp order.
type MemoryStore struct {
	mu sync.RWMutex

	readings []sensor.Reading

	// retention configuration
	maxHistory int           // max number of readings kept
	maxAge     time.Duration // optional max age for readings

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReading appends a reading and enforces retention.
func (s *MemoryStore) SaveReading(r sensor.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, r)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.readings) > s.maxHistory {
		over := len(s.readings) - s.maxHistory
		s.readings = append([]sensor.Reading(nil), s.readings[over:]...)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.readings); i++ {
			if !s.readings[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.readings = append([]sensor.Reading(nil), s.readings[i:]...)
		}
	}
}

// GetLatest returns the most recent reading.
func (s *MemoryStore) GetLatest() (sensor.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.readings) == 0 {
		return sensor.Reading{}, ErrNotFound
	}
	return s.readings[len(s.readings)-1], nil
}

// GetRange returns all readings between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]sensor.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []sensor.Reading
	for _, r := range s.readings {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Len returns the number of readings held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}
