package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neurofarm/agrispike/protocol"
)

func TestSpikeMetricsWindow(t *testing.T) {
	m := NewSpikeMetrics(time.Second)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	soilRaw := protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingRaw}
	tempRate := protocol.SpikeRecord{Sensor: protocol.SensorTemp, Encoding: protocol.EncodingRate}

	m.Add(soilRaw)
	m.Add(soilRaw)
	m.Add(tempRate)

	assert.Equal(t, 2, m.Rate(protocol.SensorSoil, protocol.EncodingRaw))
	assert.Equal(t, 1, m.Rate(protocol.SensorTemp, protocol.EncodingRate))
	assert.Equal(t, 0, m.Rate(protocol.SensorSoil, protocol.EncodingRate))
	assert.Equal(t, 3, m.TotalRate())

	// Half a window later everything is still live.
	now = now.Add(500 * time.Millisecond)
	m.Add(soilRaw)
	assert.Equal(t, 3, m.Rate(protocol.SensorSoil, protocol.EncodingRaw))

	// Past the window the first burst expires, the late spike survives.
	now = now.Add(600 * time.Millisecond)
	assert.Equal(t, 1, m.Rate(protocol.SensorSoil, protocol.EncodingRaw))
	assert.Equal(t, 0, m.Rate(protocol.SensorTemp, protocol.EncodingRate))
	assert.Equal(t, 1, m.TotalRate())

	// Lifetime totals never expire.
	assert.Equal(t, 3, m.Total(protocol.SensorSoil, protocol.EncodingRaw))
	assert.Equal(t, 1, m.Total(protocol.SensorTemp, protocol.EncodingRate))
}

func TestSpikeMetricsDefaultWindow(t *testing.T) {
	m := NewSpikeMetrics(0)
	assert.Equal(t, time.Second, m.window)
}
