package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/neurofarm/agrispike/encode"
	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/sensor"
)

// Transmitter timing and fault limits.
const (
	SampleInterval       = 3 * time.Second
	loopDelay            = 100 * time.Millisecond
	transmitTimeout      = 100 * time.Millisecond
	maxConsecutiveErrors = 10
	errorBackoff         = time.Second
)

// TxStats counts transmission outcomes.
type TxStats struct {
	PacketsSent   int
	PacketsFailed int
}

// SuccessRate returns the percentage of packets confirmed by the radio.
func (s TxStats) SuccessRate() float64 {
	total := s.PacketsSent + s.PacketsFailed
	if total == 0 {
		return 0
	}
	return 100.0 * float64(s.PacketsSent) / float64(total)
}

// Transmitter owns the sender side of the link: it samples sensors on a
// fixed interval, runs every reading through the four encodings and
// transmits each resulting record as an independent packet.
//
// It is single-threaded: Run is the only goroutine touching the radio,
// and the only suspension points are fixed-duration waits.
type Transmitter struct {
	radio   Radio
	sensors sensor.Reader
	state   *encode.State
	log     *slog.Logger

	interval   time.Duration
	start      time.Time
	lastSample time.Time
	stats      TxStats

	now func() time.Time
}

// NewTransmitter wires a transmitter to a configured radio and a sensor
// reader. The device timestamp clock starts at the first Run.
func NewTransmitter(radio Radio, sensors sensor.Reader, log *slog.Logger) *Transmitter {
	if log == nil {
		log = slog.Default()
	}
	return &Transmitter{
		radio:    radio,
		sensors:  sensors,
		state:    encode.NewState(),
		log:      log.With("component", "transmitter"),
		interval: SampleInterval,
		now:      time.Now,
	}
}

// SetInterval overrides the sample interval. Non-positive values are
// ignored.
func (t *Transmitter) SetInterval(d time.Duration) {
	if d > 0 {
		t.interval = d
	}
}

// Stats returns a copy of the transmission counters.
func (t *Transmitter) Stats() TxStats { return t.stats }

// timestamp is the sender's monotonic millisecond clock, zero at Run start.
// It wraps only past ~24 days.
func (t *Transmitter) timestamp() int32 {
	return int32(t.now().Sub(t.start).Milliseconds())
}

// SampleOnce reads all sensors and transmits the encoded spike records for
// every valid reading. Faulted sensors are skipped for this cycle. It
// returns the number of records transmitted (confirmed or not).
func (t *Transmitter) SampleOnce() int {
	ts := t.timestamp()
	readings := t.sensors.ReadAll()

	sent := 0
	readings.Each(func(s protocol.Sensor, value float32) {
		for _, record := range encode.EncodeSample(t.state, s, value, ts) {
			frame := protocol.Encode(record)
			if err := t.radio.Transmit(frame[:], transmitTimeout); err != nil {
				// Retries are the radio hardware's responsibility and are
				// already exhausted here; count and move on.
				t.stats.PacketsFailed++
				t.log.Debug("packet lost", "sensor", s.String(), "encoding", record.Encoding.String(), "err", err)
			} else {
				t.stats.PacketsSent++
			}
			sent++
		}
	})

	t.log.Info("sample cycle",
		"timestamp_ms", ts,
		"records", sent,
		"sent", t.stats.PacketsSent,
		"failed", t.stats.PacketsFailed,
	)
	return sent
}

// Run drives the cooperative sender loop until ctx is cancelled: sample
// every SampleInterval with a short tick in between. A cycle where the bus
// confirms nothing counts as a consecutive error; after maxConsecutiveErrors
// in a row the transmitter performs a full device restart (re-running the
// radio configuration sequence) and resets the counter.
func (t *Transmitter) Run(ctx context.Context) error {
	t.start = t.now()
	t.lastSample = time.Time{}
	errorCount := 0

	for {
		select {
		case <-ctx.Done():
			return t.radio.PowerDown()
		default:
		}

		if t.lastSample.IsZero() || t.now().Sub(t.lastSample) >= t.interval {
			if err := t.sampleCycle(); err != nil {
				errorCount++
				t.log.Error("cycle failed", "count", errorCount, "max", maxConsecutiveErrors, "err", err)
				if errorCount >= maxConsecutiveErrors {
					t.log.Error("too many consecutive errors, restarting radio")
					if err := t.radio.Configure(); err != nil {
						return err
					}
					errorCount = 0
				}
				sleepCtx(ctx, errorBackoff)
				continue
			}
			errorCount = 0
			t.lastSample = t.now()
		}

		sleepCtx(ctx, loopDelay)
	}
}

// sampleCycle wraps SampleOnce so a cycle where every packet failed at the
// transport level is reported as one error.
func (t *Transmitter) sampleCycle() error {
	before := t.stats
	sent := t.SampleOnce()
	if sent > 0 && t.stats.PacketsSent == before.PacketsSent {
		return ErrTxTimeout
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
