package protocol

import "math"

// Sensor identifies the physical quantity a spike was derived from.
type Sensor uint8

const (
	SensorTemp Sensor = iota
	SensorHumid
	SensorTDS
	SensorSoil

	// SensorUnknown is assigned to decoded records whose sensor id falls
	// outside the known range. Such records are kept so that consumers can
	// count and skip them instead of tearing down the pipeline.
	SensorUnknown Sensor = 0xFF
)

// NumSensors is the count of known sensor kinds.
const NumSensors = 4

func (s Sensor) String() string {
	switch s {
	case SensorTemp:
		return "temp"
	case SensorHumid:
		return "humid"
	case SensorTDS:
		return "tds"
	case SensorSoil:
		return "soil"
	default:
		return "unknown"
	}
}

// Known reports whether the sensor id is one of the four wire-defined kinds.
func (s Sensor) Known() bool { return s < NumSensors }

// Encoding identifies the spike encoding scheme a record was produced by.
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingTemporal
	EncodingRate
	EncodingPopulation

	// EncodingUnknown mirrors SensorUnknown for out-of-range encoding ids.
	EncodingUnknown Encoding = 0xFF
)

// NumEncodings is the count of known encoding schemes.
const NumEncodings = 4

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw_data"
	case EncodingTemporal:
		return "temporal"
	case EncodingRate:
		return "rate"
	case EncodingPopulation:
		return "population"
	default:
		return "unknown"
	}
}

// Known reports whether the encoding id is one of the four wire-defined schemes.
func (e Encoding) Known() bool { return e < NumEncodings }

// SpikeRecord is the unit of information crossing the radio. Each record is
// self-describing: no session or sequence state is needed to interpret one
// in isolation.
type SpikeRecord struct {
	Sensor    Sensor
	Timestamp int32 // sender milliseconds since boot
	Encoding  Encoding
	NeuronID  uint8 // population tuning-curve index; 0 for other encodings
	Value     float32
}

// Flagged reports whether Value carries a NaN or Inf bit pattern. Such
// records decode successfully (bit corruption is indistinguishable from a
// legitimate extreme value at this layer) but consumers may want to skip
// them.
func (r SpikeRecord) Flagged() bool {
	v := float64(r.Value)
	return math.IsNaN(v) || math.IsInf(v, 0)
}
