package sensor

import (
	"math"
	"sync"
)

// Sim is a deterministic sensor simulator for host-side runs. Each call
// advances an internal step counter and returns smooth waveforms inside
// each sensor's plausible range.
type Sim struct {
	mu   sync.Mutex
	step int
}

// NewSim returns a simulator starting at step zero.
func NewSim() *Sim { return &Sim{} }

// ReadAll produces the next set of simulated readings. All sensors report
// OK; fault injection belongs in tests, not here.
func (s *Sim) ReadAll() Readings {
	s.mu.Lock()
	t := float64(s.step)
	s.step++
	s.mu.Unlock()

	return Readings{
		Temp:  Reading{Value: float32(24.0 + 4.0*math.Sin(t/20.0)), OK: true},
		Humid: Reading{Value: float32(55.0 + 15.0*math.Sin(t/31.0)), OK: true},
		TDS:   Reading{Value: float32(420.0 + 60.0*math.Sin(t/45.0)), OK: true},
		Soil:  Reading{Value: float32(50.0 + 30.0*math.Sin(t/60.0)), OK: true},
	}
}
