package transport

import (
	"sync"
	"time"

	"github.com/neurofarm/agrispike/protocol"
)

// SpikeMetrics keeps a sliding-window spike rate per (sensor, encoding)
// stream plus running totals. The window is one second by default, so Rate
// reads directly in Hz.
type SpikeMetrics struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	times  map[streamKey][]time.Time
	totals map[streamKey]int
}

type streamKey struct {
	sensor   protocol.Sensor
	encoding protocol.Encoding
}

// NewSpikeMetrics creates a rate counter over the given window.
func NewSpikeMetrics(window time.Duration) *SpikeMetrics {
	if window <= 0 {
		window = time.Second
	}
	return &SpikeMetrics{
		window: window,
		now:    time.Now,
		times:  make(map[streamKey][]time.Time),
		totals: make(map[streamKey]int),
	}
}

// Add records one received spike and expires entries older than the window.
func (m *SpikeMetrics) Add(r protocol.SpikeRecord) {
	key := streamKey{r.Sensor, r.Encoding}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	times := append(m.times[key], now)
	cutoff := now.Add(-m.window)
	for len(times) > 0 && times[0].Before(cutoff) {
		times = times[1:]
	}
	m.times[key] = times
	m.totals[key]++
}

// Rate returns the number of spikes for one stream inside the current
// window.
func (m *SpikeMetrics) Rate(sensor protocol.Sensor, encoding protocol.Encoding) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired(streamKey{sensor, encoding})
}

// TotalRate returns the windowed spike count across all streams.
func (m *SpikeMetrics) TotalRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for key := range m.times {
		total += m.expired(key)
	}
	return total
}

// Total returns the lifetime count for one stream.
func (m *SpikeMetrics) Total(sensor protocol.Sensor, encoding protocol.Encoding) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[streamKey{sensor, encoding}]
}

// expired prunes the stream in place and returns its live count. Caller
// holds the lock.
func (m *SpikeMetrics) expired(key streamKey) int {
	times := m.times[key]
	cutoff := m.now().Add(-m.window)
	for len(times) > 0 && times[0].Before(cutoff) {
		times = times[1:]
	}
	m.times[key] = times
	return len(times)
}
