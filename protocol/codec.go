package protocol

import (
	"encoding/binary"
	"math"
)

// Wire layout, little-endian, fixed 16 bytes:
//
//	+-----------+-----------+-------------+-----------+---------+----------+
//	| sensor id | timestamp | encoding id | neuron id |  value  | reserved |
//	+-----------+-----------+-------------+-----------+---------+----------+
//	|  1 byte   |  4 bytes  |   1 byte    |  1 byte   | 4 bytes | 5 bytes  |
//	+-----------+-----------+-------------+-----------+---------+----------+
//
// The timestamp is a signed 32-bit sender-side millisecond clock; the value
// is an IEEE-754 float32. Reserved bytes are zero on encode and ignored on
// decode.

// Encode serializes a record into its fixed 16-byte frame.
func Encode(r SpikeRecord) [PayloadSize]byte {
	var buf [PayloadSize]byte
	buf[0] = byte(r.Sensor)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(r.Timestamp))
	buf[5] = byte(r.Encoding)
	buf[6] = r.NeuronID
	binary.LittleEndian.PutUint32(buf[7:11], math.Float32bits(r.Value))
	return buf
}

// Decode parses a received payload. Payloads shorter than MinDecodeSize are
// rejected with ErrShortPayload; trailing bytes beyond byte 10 are ignored.
// Out-of-range sensor or encoding ids map to the Unknown variants rather
// than failing, and NaN/Inf values decode as-is (see SpikeRecord.Flagged).
func Decode(data []byte) (SpikeRecord, error) {
	if len(data) < MinDecodeSize {
		return SpikeRecord{}, ErrShortPayload
	}

	r := SpikeRecord{
		Sensor:    Sensor(data[0]),
		Timestamp: int32(binary.LittleEndian.Uint32(data[1:5])),
		Encoding:  Encoding(data[5]),
		NeuronID:  data[6],
		Value:     math.Float32frombits(binary.LittleEndian.Uint32(data[7:11])),
	}
	if !r.Sensor.Known() {
		r.Sensor = SensorUnknown
	}
	if !r.Encoding.Known() {
		r.Encoding = EncodingUnknown
	}
	return r, nil
}
