// Package transport carries spike records over a radio link: the
// transmitter side samples sensors, encodes spikes and sends them one
// packet at a time; the receiver side polls the radio from a background
// goroutine and hands decoded records to consumers through a bounded queue.
package transport

import (
	"errors"
	"time"
)

// Radio is the interface the transport layer drives. driver/nrf24 provides
// the hardware implementation, driver/stub a host-side loopback.
//
// All methods must be called from a single goroutine; the radio bus does
// not tolerate interleaved transactions.
type Radio interface {
	// Configure performs the one-time register configuration sequence.
	// It must be called exactly once before any other operation.
	Configure() error

	// Transmit sends a single payload of at most 32 bytes and waits for
	// the radio to confirm or reject it. It returns ErrMaxRetransmits
	// when the radio exhausted its retransmit budget and ErrTxTimeout
	// when no confirmation arrived in time; after a timeout the hardware
	// status is not guaranteed to be clean.
	Transmit(payload []byte, timeout time.Duration) error

	// StartListening opens the reading pipe and enters listen mode.
	StartListening() error

	// StopListening leaves listen mode, quiescing the radio.
	StopListening() error

	// Poll checks for a pending payload and returns it, or (nil, nil)
	// when nothing is waiting. Payloads below the minimum decodable size
	// are rejected inside the driver as parse-impossible transmissions.
	Poll() ([]byte, error)

	// PowerDown puts the radio into its lowest power state.
	PowerDown() error
}

var (
	ErrMaxRetransmits = errors.New("radio: max retransmits reached")
	ErrTxTimeout      = errors.New("radio: transmit confirmation timed out")
	ErrRuntPayload    = errors.New("radio: payload below minimum decodable size")
)
