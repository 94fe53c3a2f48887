package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-predictor/internal/sensor"
)

// Sampler yields the live sensor reading, if there is one.
type Sampler interface {
	Sample() (sensor.Reading, bool)
}

// ReadingStore keeps sampled readings.
type ReadingStore interface {
	SaveReading(r sensor.Reading)
}

// Scheduler periodically copies the live sensor reading into history.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    Sampler
	store     ReadingStore
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, source Sampler, store ReadingStore) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		source:    source,
		store:     store,
		interval:  interval,
	}
}

// Start schedules the sampling job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.sampleOnce()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: sampling sensor every %s", interval)
	return nil
}

// sampleOnce stores the live reading; it reports whether one was stored.
func (s *Scheduler) sampleOnce() bool {
	r, ok := s.source.Sample()
	if !ok {
		log.Println("DEBUG: scheduler: no live sensor reading to sample")
		return false
	}
	s.store.SaveReading(r)
	return true
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
