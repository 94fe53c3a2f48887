package sensor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	// DefaultBackoff is the pause between reconnect attempts.
	DefaultBackoff = 5 * time.Second
	// DefaultTemperature is served when no live reading is available.
	DefaultTemperature = 80.0

	maxLineLength = 1024
	tripAfter     = 3
)

// Config holds poller settings.
type Config struct {
	Device      string
	Backoff     time.Duration
	DefaultTemp float64
}

// Reading is a sampled sensor value, kept in history.
type Reading struct {
	ID          string    `json:"id"`
	Device      string    `json:"device"`
	Temperature float64   `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`   // when the sample was taken, UTC
	ObservedAt  time.Time `json:"observed_at"` // when the device reported the value, UTC
}

// Poller owns the device connection. It alternates between two states:
// disconnected, where it tries to open the device and backs off on failure,
// and connected, where it reads lines and publishes temperatures until a
// read fails.
//
// Opens go through a circuit breaker whose timeout equals the backoff, so it
// never rejects an attempt that the backoff already allows. It does not
// throttle retries; it only logs state changes and reports device health
// through CircuitState.
type Poller struct {
	cfg     Config
	open    Opener
	state   *State
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewPoller creates a Poller publishing into state.
func NewPoller(cfg Config, open Opener, state *State) *Poller {
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if state == nil {
		state = NewState()
	}

	// The breaker only tracks device health; its timeout matches the backoff so
	// every retry after a backoff is let through.
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sensor:" + cfg.Device,
		MaxRequests: 1,
		Timeout:     cfg.Backoff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("poller: circuit %s changed from %s to %s", name, from, to)
		},
	})

	return &Poller{
		cfg:     cfg,
		open:    open,
		state:   state,
		circuit: cb,
		now:     time.Now,
	}
}

// Run polls the device until ctx is cancelled. It always returns nil: device
// errors only ever cause a reconnect.
func (p *Poller) Run(ctx context.Context) error {
	log.Printf("poller: starting on %s", p.cfg.Device)
	defer log.Printf("poller: stopped")

	for {
		err := p.session(ctx)
		p.state.markDisconnected()
		if ctx.Err() != nil {
			return nil
		}

		log.Printf("poller: %s disconnected: %v; retrying in %s", p.cfg.Device, err, p.cfg.Backoff)

		timer := time.NewTimer(p.cfg.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connected period. The port is closed before it returns.
func (p *Poller) session(ctx context.Context) error {
	port, err := p.connect()
	if err != nil {
		return err
	}
	defer port.Close()

	p.state.markConnected()
	log.Printf("INFO: poller: connected to %s", p.cfg.Device)

	return p.readLines(ctx, port)
}

func (p *Poller) connect() (io.ReadCloser, error) {
	result, err := p.circuit.Execute(func() (interface{}, error) {
		return p.open()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s unavailable: %v", ErrSerialIO, p.cfg.Device, err)
		}
		if !errors.Is(err, ErrSerialIO) {
			err = fmt.Errorf("%w: %v", ErrSerialIO, err)
		}
		return nil, err
	}

	port, ok := result.(io.ReadCloser)
	if !ok || port == nil {
		return nil, fmt.Errorf("%w: opener returned no port", ErrSerialIO)
	}
	return port, nil
}

func (p *Poller) readLines(ctx context.Context, port io.Reader) error {
	buf := make([]byte, 256)
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := pending[:i]
				pending = pending[i+1:]
				if lerr := p.handleLine(line); lerr != nil {
					return lerr
				}
			}
			if len(pending) > maxLineLength {
				log.Printf("poller: dropping %d bytes without a line break", len(pending))
				pending = nil
			}
		}
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrSerialIO, p.cfg.Device, err)
		}
	}
}

func (p *Poller) handleLine(line []byte) error {
	if !utf8.Valid(line) {
		return fmt.Errorf("%w: garbled line from %s", ErrSerialIO, p.cfg.Device)
	}
	if v, ok := ParseTemperatureLine(string(line)); ok {
		p.state.publish(v, p.now().UTC())
	}
	return nil
}

// LatestTemperature returns the live reading, or the configured default
// whenever the sensor is not connected or has not reported since connecting.
func (p *Poller) LatestTemperature() (float64, Source) {
	return p.state.Latest(p.cfg.DefaultTemp)
}

// Sample returns the live reading as a history entry. ok is false when there
// is no live reading.
func (p *Poller) Sample() (Reading, bool) {
	snap := p.state.Snapshot()
	if !snap.Active || !snap.HasValue {
		return Reading{}, false
	}
	return Reading{
		ID:          uuid.NewString(),
		Device:      p.cfg.Device,
		Temperature: snap.Temperature,
		Timestamp:   p.now().UTC(),
		ObservedAt:  snap.UpdatedAt,
	}, true
}

// Active reports whether the device is currently connected.
func (p *Poller) Active() bool {
	return p.state.Snapshot().Active
}

// Device returns the configured device name.
func (p *Poller) Device() string {
	return p.cfg.Device
}

// CircuitState reports the device circuit breaker state.
func (p *Poller) CircuitState() string {
	return p.circuit.State().String()
}
