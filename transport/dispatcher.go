package transport

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neurofarm/agrispike/protocol"
)

// Dispatcher limits.
const (
	// MaxConsecutiveErrors is the consecutive transport-fault ceiling:
	// once this many faults occur without an intervening success the
	// dispatcher stops and surfaces a fatal condition.
	MaxConsecutiveErrors = 10

	// queueCapacity bounds the decoded-record queue between the poll
	// goroutine and consumers.
	queueCapacity = 1024

	pollDelay   = time.Millisecond
	faultDelay  = 100 * time.Millisecond
	stopTimeout = 2 * time.Second
)

// RxStats is a snapshot of reception counters.
type RxStats struct {
	PacketsReceived int
	ParseErrors     int
	QueueDropped    int
}

// SpikeEvent pairs a decoded record with the local wall-clock time the poll
// goroutine pulled it off the radio.
type SpikeEvent struct {
	Record   protocol.SpikeRecord
	Received time.Time
}

// Dispatcher runs the receive side: a dedicated background goroutine owns
// the radio transport exclusively, decodes payloads and queues records in
// arrival order. Consumers drain the queue with Spikes at their own
// cadence.
//
// State machine: Idle -> Listening -> {Listening, Stopped}. Stopped is
// reached either by Stop or by the consecutive-fault ceiling, in which case
// Err reports the fatal condition.
type Dispatcher struct {
	radio Radio
	log   *slog.Logger

	queue chan SpikeEvent

	mu      sync.Mutex
	stats   RxStats
	running bool

	stop  chan struct{}
	done  chan struct{}
	fatal chan error

	now         func() time.Time
	stopTimeout time.Duration
}

// NewDispatcher wraps a configured radio. Start must be called before
// Spikes yields anything.
func NewDispatcher(radio Radio, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		radio:       radio,
		log:         log.With("component", "dispatcher"),
		queue:       make(chan SpikeEvent, queueCapacity),
		fatal:       make(chan error, 1),
		now:         time.Now,
		stopTimeout: stopTimeout,
	}
}

// Start enters listen mode and spawns the poll goroutine. Calling Start on
// a running dispatcher is an error.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("dispatcher already running")
	}

	if err := d.radio.StartListening(); err != nil {
		return fmt.Errorf("start listening: %w", err)
	}

	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running = true
	go d.pollLoop(d.stop, d.done)
	d.log.Info("listening for packets")
	return nil
}

// Stop signals the poll goroutine, joins it with a bounded timeout and
// quiesces the radio. Safe to call more than once. If the join times out
// the radio is abandoned rather than touched: the poll goroutine may
// still be mid-transaction and the bus does not tolerate interleaving.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stop)
	done := d.done
	d.mu.Unlock()

	select {
	case <-done:
	case <-time.After(d.stopTimeout):
		d.log.Warn("poll goroutine did not stop in time, abandoning radio")
		return fmt.Errorf("dispatcher: poll goroutine still running after %s", d.stopTimeout)
	}
	return d.radio.StopListening()
}

// Err exposes the fatal-condition channel. It receives at most one error,
// sent when the consecutive-fault ceiling stops the dispatcher.
func (d *Dispatcher) Err() <-chan error { return d.fatal }

// Stats returns a snapshot of the reception counters.
func (d *Dispatcher) Stats() RxStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Spikes drains every queued record without blocking and returns them in
// arrival order. It never blocks the caller, even while the poll goroutine
// is producing.
func (d *Dispatcher) Spikes() []protocol.SpikeRecord {
	var out []protocol.SpikeRecord
	for _, ev := range d.Events() {
		out = append(out, ev.Record)
	}
	return out
}

// Events is Spikes with per-record arrival times, for consumers that log
// or analyze reception latency.
func (d *Dispatcher) Events() []SpikeEvent {
	var out []SpikeEvent
	for {
		select {
		case ev := <-d.queue:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (d *Dispatcher) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	consecutive := 0

	for {
		select {
		case <-stop:
			return
		default:
		}

		payload, err := d.radio.Poll()
		switch {
		case err == ErrRuntPayload:
			// Too short to ever parse: a corrupted transmission, not a
			// radio fault. It counts in the statistics and against the
			// consecutive counter, but like the decode failures below it
			// never escalates; only transport faults can go fatal.
			consecutive++
			d.count(func(s *RxStats) { s.ParseErrors++ })

		case err != nil:
			consecutive++
			d.log.Error("receive fault", "count", consecutive, "max", MaxConsecutiveErrors, "err", err)
			if consecutive >= MaxConsecutiveErrors {
				d.fail(fmt.Errorf("dispatcher: %d consecutive receive faults: %w", consecutive, err))
				return
			}
			sleepStop(stop, faultDelay)

		case payload != nil:
			record, derr := protocol.Decode(payload)
			if derr != nil {
				consecutive++
				d.count(func(s *RxStats) { s.ParseErrors++ })
				continue
			}

			consecutive = 0
			select {
			case d.queue <- SpikeEvent{Record: record, Received: d.now()}:
				d.count(func(s *RxStats) { s.PacketsReceived++ })
			default:
				// Bounded queue full: drop the newest record rather than
				// block the radio poll or reorder survivors.
				d.count(func(s *RxStats) { s.QueueDropped++ })
			}

		default:
			sleepStop(stop, pollDelay)
		}
	}
}

func (d *Dispatcher) count(fn func(*RxStats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

// fail records the fatal condition, quiesces the radio and marks the
// dispatcher stopped. The error is delivered once through Err.
func (d *Dispatcher) fail(err error) {
	d.log.Error("fatal: stopping receiver", "err", err)
	select {
	case d.fatal <- err:
	default:
	}
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	_ = d.radio.StopListening()
}

func sleepStop(stop <-chan struct{}, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
	case <-timer.C:
	}
}
