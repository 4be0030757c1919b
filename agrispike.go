// Package agrispike provides a façade over the spike telemetry stack.
package agrispike

import (
	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/snn"
	"github.com/neurofarm/agrispike/transport"
)

// Re-export the types most integrations need, so simple users can depend
// on the root package alone.
type (
	Sensor      = protocol.Sensor
	Encoding    = protocol.Encoding
	SpikeRecord = protocol.SpikeRecord
	RadioConfig = protocol.RadioConfig
	Radio       = transport.Radio
	Transmitter = transport.Transmitter
	Dispatcher  = transport.Dispatcher
	Network     = snn.Network
	Decision    = snn.Decision
)

// Errors exposed in the public API.
var (
	ErrShortPayload   = protocol.ErrShortPayload
	ErrInvalidChannel = protocol.ErrInvalidChannel
	ErrInvalidAddress = protocol.ErrInvalidAddress
	ErrMaxRetransmits = transport.ErrMaxRetransmits
	ErrTxTimeout      = transport.ErrTxTimeout
	ErrRuntPayload    = transport.ErrRuntPayload
)

// Constants exposed in the public API.
const (
	SensorTemp  = protocol.SensorTemp
	SensorHumid = protocol.SensorHumid
	SensorTDS   = protocol.SensorTDS
	SensorSoil  = protocol.SensorSoil

	EncodingRaw        = protocol.EncodingRaw
	EncodingTemporal   = protocol.EncodingTemporal
	EncodingRate       = protocol.EncodingRate
	EncodingPopulation = protocol.EncodingPopulation

	DefaultChannel = protocol.DefaultChannel
	PayloadSize    = protocol.PayloadSize
)

// DefaultAddress is the shared 5-byte pipe address.
var DefaultAddress = protocol.DefaultAddress

// NewTransmitter and NewDispatcher mirror the transport constructors.
var (
	NewTransmitter = transport.NewTransmitter
	NewDispatcher  = transport.NewDispatcher
	NewNetwork     = snn.NewNetwork
)
