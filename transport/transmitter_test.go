package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/sensor"
)

// fixedReader returns the same readings on every cycle.
type fixedReader struct{ readings sensor.Readings }

func (f fixedReader) ReadAll() sensor.Readings { return f.readings }

func allOK(temp, humid, tds, soil float32) sensor.Readings {
	return sensor.Readings{
		Temp:  sensor.Reading{Value: temp, OK: true},
		Humid: sensor.Reading{Value: humid, OK: true},
		TDS:   sensor.Reading{Value: tds, OK: true},
		Soil:  sensor.Reading{Value: soil, OK: true},
	}
}

func TestSampleOnceTransmitsDecodableFrames(t *testing.T) {
	radio := NewMockRadio()
	tx := NewTransmitter(radio, fixedReader{allOK(22, 50, 400, 45)}, nil)
	tx.start = tx.now()

	sent := tx.SampleOnce()
	require.Greater(t, sent, 0)

	log := radio.TxLog()
	require.Len(t, log, sent)

	// Every frame on the wire is exactly 16 bytes and decodes cleanly.
	raws := 0
	for _, frame := range log {
		require.Len(t, frame, protocol.PayloadSize)
		record, err := protocol.Decode(frame)
		require.NoError(t, err)
		if record.Encoding == protocol.EncodingRaw {
			raws++
		}
	}
	// One raw record per healthy sensor, always.
	assert.Equal(t, 4, raws)
	assert.Equal(t, sent, tx.Stats().PacketsSent)
	assert.Zero(t, tx.Stats().PacketsFailed)
}

func TestSampleOnceSkipsFaultedSensor(t *testing.T) {
	radio := NewMockRadio()
	readings := allOK(22, 50, 400, 45)
	readings.Humid.OK = false
	tx := NewTransmitter(radio, fixedReader{readings}, nil)
	tx.start = tx.now()

	tx.SampleOnce()
	for _, frame := range radio.TxLog() {
		record, err := protocol.Decode(frame)
		require.NoError(t, err)
		assert.NotEqual(t, protocol.SensorHumid, record.Sensor,
			"faulted sensor must be skipped without failing the cycle")
	}
}

func TestSampleOnceCountsFailures(t *testing.T) {
	radio := NewMockRadio()
	tx := NewTransmitter(radio, fixedReader{allOK(22, 50, 400, 45)}, nil)
	tx.start = tx.now()

	// First packet of the cycle hits max retransmits, rest succeed.
	radio.InjectTxResult(ErrMaxRetransmits)
	sent := tx.SampleOnce()

	stats := tx.Stats()
	assert.Equal(t, 1, stats.PacketsFailed)
	assert.Equal(t, sent-1, stats.PacketsSent)
	assert.InDelta(t, 100.0*float64(sent-1)/float64(sent), stats.SuccessRate(), 0.01)
}

func TestSuccessRateEmpty(t *testing.T) {
	assert.Zero(t, TxStats{}.SuccessRate())
}

func TestTransmitterTimestampMonotonic(t *testing.T) {
	radio := NewMockRadio()
	tx := NewTransmitter(radio, fixedReader{allOK(22, 50, 400, 45)}, nil)

	base := time.Now()
	tx.now = func() time.Time { return base }
	tx.start = base
	require.Zero(t, tx.timestamp())

	tx.now = func() time.Time { return base.Add(2500 * time.Millisecond) }
	assert.Equal(t, int32(2500), tx.timestamp())
}
