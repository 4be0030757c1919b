// Package control drives the irrigation relay from soil-moisture readings
// through a two-threshold hysteresis state machine.
package control

import (
	"fmt"
	"log/slog"
	"time"
)

// Hysteresis thresholds and rate limit. Two distinct thresholds keep the
// relay from chattering around a single setpoint.
const (
	DefaultLowThreshold  = 30.0 // % soil moisture: turn irrigation on below
	DefaultHighThreshold = 70.0 // % soil moisture: turn irrigation off at or above
	CheckInterval        = 2 * time.Second
)

// Actuator is the binary output line boundary. Polarity is the
// implementation's concern; Set(true) always means "irrigate".
type Actuator interface {
	Set(on bool) error
}

// NopActuator satisfies Actuator for simulation runs.
type NopActuator struct{}

func (NopActuator) Set(bool) error { return nil }

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Active          bool
	SoilMoisture    float32
	HasReading      bool
	ActivationCount int
	TotalActiveTime time.Duration
	CurrentRun      time.Duration
}

// Controller is the hysteresis state machine. It is owned by the consumer
// flow and is not safe for concurrent use.
type Controller struct {
	actuator Actuator
	log      *slog.Logger

	low  float64
	high float64

	active        bool
	moisture      float32
	hasReading    bool
	lastCheck     time.Time
	lastActivated time.Time
	activations   int
	totalActive   time.Duration

	now func() time.Time
}

// NewController starts in the Off state with the default thresholds and
// forces the actuator off so the line level is known.
func NewController(actuator Actuator, log *slog.Logger) (*Controller, error) {
	if actuator == nil {
		actuator = NopActuator{}
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		actuator: actuator,
		log:      log.With("component", "irrigation"),
		low:      DefaultLowThreshold,
		high:     DefaultHighThreshold,
		now:      time.Now,
	}
	if err := actuator.Set(false); err != nil {
		return nil, fmt.Errorf("irrigation: park relay: %w", err)
	}
	return c, nil
}

// Update feeds one soil-moisture reading through the hysteresis logic and
// returns whether the relay state changed. Calls closer together than
// CheckInterval since the previous accepted call are no-ops: they neither
// transition nor record the reading.
func (c *Controller) Update(moisture float32) (bool, error) {
	now := c.now()
	if !c.lastCheck.IsZero() && now.Sub(c.lastCheck) < CheckInterval {
		return false, nil
	}
	c.lastCheck = now
	c.moisture = moisture
	c.hasReading = true

	if !c.active {
		if float64(moisture) < c.low {
			return true, c.turnOn()
		}
	} else {
		if float64(moisture) >= c.high {
			return true, c.turnOff()
		}
	}
	return false, nil
}

// Override forces the relay into a state, bypassing hysteresis and the
// rate limit but keeping the same bookkeeping. Forcing the current state
// is a no-op.
func (c *Controller) Override(on bool) error {
	if on == c.active {
		return nil
	}
	c.log.Info("manual override", "on", on)
	if on {
		return c.turnOn()
	}
	return c.turnOff()
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	s := Status{
		Active:          c.active,
		SoilMoisture:    c.moisture,
		HasReading:      c.hasReading,
		ActivationCount: c.activations,
		TotalActiveTime: c.totalActive,
	}
	if c.active {
		s.CurrentRun = c.now().Sub(c.lastActivated)
	}
	return s
}

// Close forces the relay off, accumulating any running activation.
func (c *Controller) Close() error {
	if c.active {
		return c.turnOff()
	}
	return c.actuator.Set(false)
}

func (c *Controller) turnOn() error {
	if err := c.actuator.Set(true); err != nil {
		return fmt.Errorf("irrigation: relay on: %w", err)
	}
	c.active = true
	c.lastActivated = c.now()
	c.activations++
	c.log.Info("irrigation started", "soil_moisture", c.moisture)
	return nil
}

func (c *Controller) turnOff() error {
	if err := c.actuator.Set(false); err != nil {
		return fmt.Errorf("irrigation: relay off: %w", err)
	}
	run := c.now().Sub(c.lastActivated)
	c.totalActive += run
	c.active = false
	c.log.Info("irrigation stopped", "duration", run, "soil_moisture", c.moisture)
	return nil
}
