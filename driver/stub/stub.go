// Package stub provides an in-memory radio for host-side development and
// tests. A Wire couples two Radio endpoints the way a shared RF channel
// couples the real devices: whatever one side transmits shows up in the
// other side's receive buffer, with optional loss and fault injection.
package stub

import (
	"sync"
	"time"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/transport"
)

// Wire is the shared medium between two endpoints.
type Wire struct {
	mu sync.Mutex
	a  *Radio
	b  *Radio
}

// NewWire returns a connected endpoint pair.
func NewWire() (*Wire, *Radio, *Radio) {
	w := &Wire{}
	w.a = &Radio{wire: w}
	w.b = &Radio{wire: w}
	return w, w.a, w.b
}

func (w *Wire) peer(r *Radio) *Radio {
	if r == w.a {
		return w.b
	}
	return w.a
}

// Radio is one endpoint of a Wire. The zero value is unusable; obtain
// endpoints from NewWire.
type Radio struct {
	wire *Wire

	mu         sync.Mutex
	configured bool
	listening  bool
	rx         ring

	dropNext  int
	faultNext []error
}

var _ transport.Radio = (*Radio)(nil)

func (r *Radio) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configured = true
	return nil
}

// Transmit delivers the payload to the peer when it is listening. Packets
// sent while the peer is deaf are lost silently, exactly like on air (no
// acknowledgment in this link design).
func (r *Radio) Transmit(payload []byte, timeout time.Duration) error {
	r.mu.Lock()
	if !r.configured {
		r.mu.Unlock()
		return transport.ErrTxTimeout
	}
	if r.dropNext > 0 {
		r.dropNext--
		r.mu.Unlock()
		return transport.ErrMaxRetransmits
	}
	r.mu.Unlock()

	peer := r.wire.peer(r)
	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.listening {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		peer.rx.push(cp)
	}
	return nil
}

func (r *Radio) StartListening() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configured = true
	r.listening = true
	return nil
}

func (r *Radio) StopListening() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = false
	return nil
}

func (r *Radio) Poll() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.faultNext) > 0 {
		err := r.faultNext[0]
		r.faultNext = r.faultNext[1:]
		return nil, err
	}
	payload, ok := r.rx.pop()
	if !ok {
		return nil, nil
	}
	if len(payload) < protocol.MinDecodeSize {
		return nil, transport.ErrRuntPayload
	}
	return payload, nil
}

func (r *Radio) PowerDown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = false
	return nil
}

// DropNext makes the next n Transmit calls fail with ErrMaxRetransmits.
func (r *Radio) DropNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropNext = n
}

// InjectFault queues a transport-level receive fault for Poll.
func (r *Radio) InjectFault(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faultNext = append(r.faultNext, err)
}

// InjectRx places a raw payload directly into this endpoint's receive
// buffer, bypassing the wire.
func (r *Radio) InjectRx(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	r.rx.push(cp)
}

// ring is a bounded FIFO; when full the oldest payload is overwritten so
// memory stays bounded, mirroring a saturated RX FIFO losing packets.
const ringCapacity = 256

type ring struct {
	data       [ringCapacity][]byte
	head, tail int
	count      int
}

func (rb *ring) push(payload []byte) {
	if rb.count == ringCapacity {
		rb.data[rb.head] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = payload
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ring) pop() ([]byte, bool) {
	if rb.count == 0 {
		return nil, false
	}
	payload := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return payload, true
}
