package nrf24

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/transport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBus records every write frame and answers reads from a script keyed
// by the command byte. It implements spi.Conn so it can stand in for a
// periph.io bus handle.
type fakeBus struct {
	writes  [][]byte
	status  byte            // returned for STATUS reads
	replies map[byte][]byte // full response frame per command byte
}

func (f *fakeBus) String() string { return "fakebus" }

func (f *fakeBus) Duplex() conn.Duplex { return conn.Full }

func (f *fakeBus) TxPackets(p []spi.Packet) error { return nil }

func (f *fakeBus) Tx(w, r []byte) error {
	frame := make([]byte, len(w))
	copy(frame, w)
	f.writes = append(f.writes, frame)

	if reply, ok := f.replies[w[0]]; ok {
		copy(r, reply)
		return nil
	}
	if w[0] == regStatus { // plain register read
		if len(r) > 1 {
			r[1] = f.status
		}
	}
	return nil
}

type fakePin struct{ levels []gpio.Level }

func (p *fakePin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return nil
}

func newTestRadio(t *testing.T, role Role, bus *fakeBus) (*Radio, *fakePin, *fakePin) {
	t.Helper()
	ce := &fakePin{}
	csn := &fakePin{}
	r := &Radio{
		bus:   bus,
		ce:    ce,
		csn:   csn,
		cfg:   protocol.DefaultRadioConfig(),
		role:  role,
		log:   discardLogger(),
		sleep: func(time.Duration) {},
	}
	return r, ce, csn
}

func TestConfigureSequence(t *testing.T) {
	bus := &fakeBus{}
	r, ce, csn := newTestRadio(t, RoleTransmit, bus)
	require.NoError(t, r.Configure())

	want := [][]byte{
		{cmdWriteReg | regConfig, configPowerDown},
		{cmdWriteReg | regEnAA, 0x00},
		{cmdWriteReg | regEnRxAddr, 0x01},
		{cmdWriteReg | regSetupAW, 0x03},
		{cmdWriteReg | regSetupRetr, 0x1F},
		{cmdWriteReg | regRFCh, 76},
		{cmdWriteReg | regRFSetup, 0x26},
		append([]byte{cmdWriteReg | regTxAddr}, []byte("AGRIC")...),
		append([]byte{cmdWriteReg | regRxAddrP0}, []byte("AGRIC")...),
		{cmdWriteReg | regRxPwP0, 32},
		{cmdWriteReg | regFeature, 0x04},
		{cmdWriteReg | regDynPD, 0x01},
		{cmdWriteReg | regStatus, 0x70},
		{cmdWriteReg | regConfig, configTxUp},
	}
	require.Equal(t, want, bus.writes)

	// Every transaction is CSN-framed: one low+high pair per write.
	assert.Len(t, csn.levels, 2*len(want))
	for i := 0; i < len(csn.levels); i += 2 {
		assert.Equal(t, gpio.Low, csn.levels[i])
		assert.Equal(t, gpio.High, csn.levels[i+1])
	}
	// CE stays low throughout configuration.
	for _, l := range ce.levels {
		assert.Equal(t, gpio.Low, l)
	}
}

func TestConfigureReceiveRole(t *testing.T) {
	bus := &fakeBus{}
	r, _, _ := newTestRadio(t, RoleReceive, bus)
	require.NoError(t, r.Configure())

	last := bus.writes[len(bus.writes)-1]
	assert.Equal(t, []byte{cmdWriteReg | regConfig, byte(configRxUp)}, last,
		"receive role powers up with PRIM_RX set")
}

func TestTransmitSuccess(t *testing.T) {
	bus := &fakeBus{status: statusTxDS}
	r, ce, _ := newTestRadio(t, RoleTransmit, bus)
	require.NoError(t, r.Configure())
	bus.writes = nil
	ce.levels = nil

	frame := protocol.Encode(protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingRaw, Value: 42})
	require.NoError(t, r.Transmit(frame[:], 100*time.Millisecond))

	// Flush, payload load, CE pulse, status poll, TX_DS clear.
	require.GreaterOrEqual(t, len(bus.writes), 4)
	assert.Equal(t, []byte{cmdFlushTx}, bus.writes[0])
	assert.Equal(t, byte(cmdTxPayload), bus.writes[1][0])
	assert.Equal(t, frame[:], bus.writes[1][1:])
	assert.Equal(t, []byte{cmdWriteReg | regStatus, statusTxDS},
		bus.writes[len(bus.writes)-1], "TX_DS cleared on success")
	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low}, ce.levels, "CE pulsed once")
}

func TestTransmitMaxRetransmits(t *testing.T) {
	bus := &fakeBus{status: statusMaxRT}
	r, _, _ := newTestRadio(t, RoleTransmit, bus)
	require.NoError(t, r.Configure())
	bus.writes = nil

	err := r.Transmit(make([]byte, protocol.PayloadSize), 100*time.Millisecond)
	require.ErrorIs(t, err, transport.ErrMaxRetransmits)
	assert.Equal(t, []byte{cmdWriteReg | regStatus, statusMaxRT},
		bus.writes[len(bus.writes)-1], "MAX_RT cleared on failure")
}

func TestTransmitTimeoutClearsNothing(t *testing.T) {
	bus := &fakeBus{status: 0x00}
	r, _, _ := newTestRadio(t, RoleTransmit, bus)
	require.NoError(t, r.Configure())
	bus.writes = nil

	err := r.Transmit(make([]byte, protocol.PayloadSize), 3*time.Millisecond)
	require.ErrorIs(t, err, transport.ErrTxTimeout)
	for _, w := range bus.writes {
		assert.NotEqual(t, byte(cmdWriteReg|regStatus), w[0],
			"timeout must not clear any status bit")
	}
}

func TestTransmitGuards(t *testing.T) {
	bus := &fakeBus{}
	r, _, _ := newTestRadio(t, RoleTransmit, bus)
	require.Error(t, r.Transmit(make([]byte, 16), time.Millisecond), "transmit before Configure")

	require.NoError(t, r.Configure())
	require.Error(t, r.Transmit(nil, time.Millisecond))
	require.Error(t, r.Transmit(make([]byte, 33), time.Millisecond))
}

func TestPollEmptyFIFO(t *testing.T) {
	bus := &fakeBus{
		status:  0x00,
		replies: map[byte][]byte{regFIFO: {0, fifoRxEmpty}},
	}
	r, _, _ := newTestRadio(t, RoleReceive, bus)
	require.NoError(t, r.Configure())
	require.NoError(t, r.StartListening())

	payload, err := r.Poll()
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestPollReadsDynamicPayload(t *testing.T) {
	frame := protocol.Encode(protocol.SpikeRecord{
		Sensor: protocol.SensorHumid, Timestamp: 1234, Encoding: protocol.EncodingPopulation, NeuronID: 2, Value: 72.6,
	})

	reply := make([]byte, 1+protocol.PayloadSize)
	copy(reply[1:], frame[:])
	bus := &fakeBus{
		status: statusRxDR,
		replies: map[byte][]byte{
			cmdRxPlWidth: {0, protocol.PayloadSize},
			cmdRxPayload: reply,
		},
	}
	r, _, _ := newTestRadio(t, RoleReceive, bus)
	require.NoError(t, r.Configure())
	require.NoError(t, r.StartListening())
	bus.writes = nil

	payload, err := r.Poll()
	require.NoError(t, err)
	require.Equal(t, frame[:], payload)

	record, err := protocol.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), record.NeuronID)

	assert.Equal(t, []byte{cmdWriteReg | regStatus, statusRxDR},
		bus.writes[len(bus.writes)-1], "RX_DR cleared after read")
}

func TestPollRejectsRuntPayload(t *testing.T) {
	bus := &fakeBus{
		status: statusRxDR,
		replies: map[byte][]byte{
			cmdRxPlWidth: {0, protocol.MinDecodeSize - 1},
		},
	}
	r, _, _ := newTestRadio(t, RoleReceive, bus)
	require.NoError(t, r.Configure())
	require.NoError(t, r.StartListening())

	_, err := r.Poll()
	require.ErrorIs(t, err, transport.ErrRuntPayload)
}

func TestNewRequiresHandles(t *testing.T) {
	_, err := New(Options{Config: protocol.DefaultRadioConfig()})
	require.Error(t, err)

	bad := protocol.RadioConfig{Channel: 200, Address: protocol.DefaultAddress}
	_, err = New(Options{Config: bad})
	require.ErrorIs(t, err, protocol.ErrInvalidChannel)
}

func TestNewParksControlLines(t *testing.T) {
	// gpiotest pins stand in for the real CE/CSN lines.
	ce := &gpiotest.Pin{N: "CE"}
	csn := &gpiotest.Pin{N: "CSN"}
	r, err := New(Options{
		Bus:    &fakeBus{},
		CE:     ce,
		CSN:    csn,
		Config: protocol.DefaultRadioConfig(),
		Role:   RoleTransmit,
	})
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, gpio.High, csn.L, "CSN parked high")
	assert.Equal(t, gpio.Low, ce.L, "CE parked low")
}
