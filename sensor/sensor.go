// Package sensor defines the acquisition capability the transmitter
// consumes. Calibration and hardware access live behind the Reader
// interface; the core only sees calibrated values and per-sensor fault
// flags.
package sensor

import "github.com/neurofarm/agrispike/protocol"

// Reading is one calibrated sensor value. OK is false on a transient sensor
// fault, in which case the sample is skipped for the current cycle without
// affecting other sensors.
type Reading struct {
	Value float32
	OK    bool
}

// Readings holds one reading per sensor kind for a single sample cycle.
type Readings struct {
	Temp  Reading // °C
	Humid Reading // %
	TDS   Reading // ppm
	Soil  Reading // %
}

// Get returns the reading for a sensor kind.
func (r Readings) Get(s protocol.Sensor) Reading {
	switch s {
	case protocol.SensorTemp:
		return r.Temp
	case protocol.SensorHumid:
		return r.Humid
	case protocol.SensorTDS:
		return r.TDS
	case protocol.SensorSoil:
		return r.Soil
	default:
		return Reading{}
	}
}

// Each calls fn for every valid reading in fixed sensor order.
func (r Readings) Each(fn func(s protocol.Sensor, value float32)) {
	for s := protocol.Sensor(0); s < protocol.NumSensors; s++ {
		if reading := r.Get(s); reading.OK {
			fn(s, reading.Value)
		}
	}
}

// Reader is the acquisition capability: one call reads all sensors.
type Reader interface {
	ReadAll() Readings
}
