// Package encode turns calibrated sensor readings into spike records using
// the four neuromorphic encoding schemes carried on the wire: raw, temporal
// (change detection), rate (probabilistic) and population (Gaussian tuning
// curves).
package encode

import (
	"math"

	"github.com/neurofarm/agrispike/protocol"
)

// Per-sensor temporal change thresholds.
var temporalThreshold = [protocol.NumSensors]float32{
	protocol.SensorTemp:  1.0,
	protocol.SensorHumid: 1.0,
	protocol.SensorTDS:   5.0,
	protocol.SensorSoil:  2.0,
}

// Population coding tuning curves: fixed centers over the normalized range,
// shared bandwidth, and the activation floor below which a neuron stays
// silent.
var populationCenters = [4]float64{0.0, 0.33, 0.66, 1.0}

const (
	populationBandwidth = 0.2
	populationFloor     = 0.3
)

// State holds the only mutable piece of encoder state: the last observed
// value per sensor, used by the temporal scheme. It is passed explicitly so
// that EncodeSample is a pure step function.
type State struct {
	prev    [protocol.NumSensors]float32
	hasPrev [protocol.NumSensors]bool
}

// NewState returns an empty state: no sensor has a previous value, so the
// temporal scheme stays silent for each sensor's first sample.
func NewState() *State { return &State{} }

// Previous returns the last observed value for a sensor, if any.
func (s *State) Previous(sensor protocol.Sensor) (float32, bool) {
	if !sensor.Known() {
		return 0, false
	}
	return s.prev[sensor], s.hasPrev[sensor]
}

// EncodeSample evaluates all four encoding schemes for one reading against
// the pre-update previous value, then records the reading as the new
// previous value. It emits between one record (raw always fires) and up to
// seven (raw + temporal + rate + four population neurons).
func EncodeSample(s *State, sensor protocol.Sensor, value float32, timestamp int32) []protocol.SpikeRecord {
	if !sensor.Known() {
		return nil
	}

	records := make([]protocol.SpikeRecord, 0, 7)
	records = append(records, encodeRaw(sensor, value, timestamp))

	if r, ok := encodeTemporal(s, sensor, value, timestamp); ok {
		records = append(records, r)
	}
	if r, ok := encodeRate(sensor, value, timestamp); ok {
		records = append(records, r)
	}
	records = append(records, encodePopulation(sensor, value, timestamp)...)

	s.prev[sensor] = value
	s.hasPrev[sensor] = true
	return records
}

func encodeRaw(sensor protocol.Sensor, value float32, timestamp int32) protocol.SpikeRecord {
	return protocol.SpikeRecord{
		Sensor:    sensor,
		Timestamp: timestamp,
		Encoding:  protocol.EncodingRaw,
		Value:     value,
	}
}

// encodeTemporal fires when the reading moved by more than the per-sensor
// threshold since the previous sample. The value carries only the polarity
// of the change; the magnitude is discarded.
func encodeTemporal(s *State, sensor protocol.Sensor, value float32, timestamp int32) (protocol.SpikeRecord, bool) {
	prev, ok := s.Previous(sensor)
	if !ok {
		return protocol.SpikeRecord{}, false
	}

	change := value - prev
	if change < 0 {
		change = -change
	}
	if change <= temporalThreshold[sensor] {
		return protocol.SpikeRecord{}, false
	}

	polarity := float32(1.0)
	if value < prev {
		polarity = -1.0
	}
	return protocol.SpikeRecord{
		Sensor:    sensor,
		Timestamp: timestamp,
		Encoding:  protocol.EncodingTemporal,
		Value:     polarity,
	}, true
}

// encodeRate fires with probability 0.5*normalized, drawing pseudo-random
// bits from the low three decimal digits of the timestamp. The draw is
// deterministic and reproducible; the deployed transmitter fleet depends on
// exactly this behavior.
func encodeRate(sensor protocol.Sensor, value float32, timestamp int32) (protocol.SpikeRecord, bool) {
	probability := Normalize(sensor, value) * 0.5
	draw := timestamp % 1000
	if draw < 0 {
		draw += 1000
	}
	if float64(draw) >= probability*1000 {
		return protocol.SpikeRecord{}, false
	}
	return protocol.SpikeRecord{
		Sensor:    sensor,
		Timestamp: timestamp,
		Encoding:  protocol.EncodingRate,
		Value:     1.0,
	}, true
}

// encodePopulation distributes the reading over four neurons with Gaussian
// tuning curves and emits a record for every neuron activated above the
// floor. The value carries the activation scaled to percent.
func encodePopulation(sensor protocol.Sensor, value float32, timestamp int32) []protocol.SpikeRecord {
	normalized := Normalize(sensor, value)

	var records []protocol.SpikeRecord
	for id, center := range populationCenters {
		distance := normalized - center
		activation := math.Exp(-0.5 * (distance / populationBandwidth) * (distance / populationBandwidth))
		if activation <= populationFloor {
			continue
		}
		records = append(records, protocol.SpikeRecord{
			Sensor:    sensor,
			Timestamp: timestamp,
			Encoding:  protocol.EncodingPopulation,
			NeuronID:  uint8(id),
			Value:     float32(activation * 100.0),
		})
	}
	return records
}

// Normalize maps a calibrated reading onto [0,1] with the sensor-specific
// linear mapping shared by the rate and population schemes.
func Normalize(sensor protocol.Sensor, value float32) float64 {
	var normalized float64
	switch sensor {
	case protocol.SensorTemp:
		normalized = (float64(value) + 10.0) / 60.0
	case protocol.SensorTDS:
		normalized = float64(value) / 1000.0
	default: // humid, soil
		normalized = float64(value) / 100.0
	}
	return math.Min(1.0, math.Max(0.0, normalized))
}
