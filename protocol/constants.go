package protocol

// Radio link constants. Both ends of a link must be configured with the same
// values bit-for-bit for any exchange to succeed; nothing enforces this
// in-band.
const (
	// RF channel 76 = 2.476 GHz.
	DefaultChannel = 76

	// PayloadSize is the on-air frame length produced by Encode.
	PayloadSize = 16

	// MinDecodeSize is the smallest payload Decode accepts. Bytes 0-10
	// carry the sensor id, timestamp, encoding id, neuron id and value;
	// everything past that is padding.
	MinDecodeSize = 11

	// MaxChannel is the highest valid RF channel.
	MaxChannel = 125

	// AddressWidth is the pipe address width in bytes.
	AddressWidth = 5
)

// DefaultAddress is the fixed 5-byte pipe address shared by the transmitter
// and receiver ("AGRIC").
var DefaultAddress = [AddressWidth]byte{'A', 'G', 'R', 'I', 'C'}

// RadioConfig carries the link parameters. It is immutable after device
// init and shared read-only by the TX and RX sides.
type RadioConfig struct {
	Channel uint8
	Address [AddressWidth]byte
}

// DefaultRadioConfig returns the deployed link settings.
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		Channel: DefaultChannel,
		Address: DefaultAddress,
	}
}

// Validate checks channel range and that the address is not all zero.
func (c RadioConfig) Validate() error {
	if c.Channel > MaxChannel {
		return ErrInvalidChannel
	}
	if c.Address == ([AddressWidth]byte{}) {
		return ErrInvalidAddress
	}
	return nil
}
