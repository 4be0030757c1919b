// Package nrf24 is a register-level driver for the nRF24L01+ 2.4 GHz
// transceiver over an SPI bus and two GPIO lines (chip enable and chip
// select). It implements transport.Radio for both the transmit and the
// receive role.
//
// Every register access is a strict two-phase bus transaction: assert chip
// select, transfer command and data, release chip select. The driver owns
// the bus handle exclusively; reads and writes never interleave.
package nrf24

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/transport"
)

// Narrow views over the periph.io types, so tests can substitute scripted
// fakes without a bus.
type spiConn interface {
	Tx(w, r []byte) error
}

type outPin interface {
	Out(l gpio.Level) error
}

// Role selects the direction the radio is configured for. The register
// sequences differ only in the final CONFIG value and pipe setup.
type Role uint8

const (
	RoleTransmit Role = iota
	RoleReceive
)

// Options collects the hardware handles and link parameters.
type Options struct {
	Bus    spi.Conn
	CE     gpio.PinIO // chip enable: latches TX, gates listen mode
	CSN    gpio.PinIO // chip select, active low
	Config protocol.RadioConfig
	Role   Role
	Log    *slog.Logger
}

// Radio drives one nRF24L01+ device.
type Radio struct {
	bus  spiConn
	ce   outPin
	csn  outPin
	cfg  protocol.RadioConfig
	role Role
	log  *slog.Logger

	configured bool
	listening  bool

	// sleep is swappable so tests do not pay real settle delays.
	sleep func(time.Duration)
}

var _ transport.Radio = (*Radio)(nil)

// New validates the link parameters and parks the control lines (CSN high,
// CE low). Configure still has to run before any traffic.
func New(opts Options) (*Radio, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Bus == nil || opts.CE == nil || opts.CSN == nil {
		return nil, fmt.Errorf("nrf24: bus, CE and CSN are all required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	r := &Radio{
		bus:   opts.Bus,
		ce:    opts.CE,
		csn:   opts.CSN,
		cfg:   opts.Config,
		role:  opts.Role,
		log:   log.With("component", "nrf24"),
		sleep: time.Sleep,
	}
	if err := r.csn.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("nrf24: park CSN: %w", err)
	}
	if err := r.ce.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("nrf24: park CE: %w", err)
	}
	return r, nil
}

// transact runs one CSN-framed SPI transfer. w and r must be equal length;
// the first response byte is the STATUS register.
func (r *Radio) transact(w, rx []byte) error {
	if err := r.csn.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert CSN: %w", err)
	}
	txErr := r.bus.Tx(w, rx)
	if err := r.csn.Out(gpio.High); err != nil {
		return fmt.Errorf("release CSN: %w", err)
	}
	if txErr != nil {
		return fmt.Errorf("spi transfer: %w", txErr)
	}
	return nil
}

func (r *Radio) writeReg(reg, value byte) error {
	w := []byte{cmdWriteReg | reg, value}
	return r.transact(w, make([]byte, len(w)))
}

func (r *Radio) writeRegBytes(reg byte, value []byte) error {
	w := append([]byte{cmdWriteReg | reg}, value...)
	return r.transact(w, make([]byte, len(w)))
}

func (r *Radio) readReg(reg byte) (byte, error) {
	w := []byte{reg, cmdNop}
	rx := make([]byte, len(w))
	if err := r.transact(w, rx); err != nil {
		return 0, err
	}
	return rx[1], nil
}

func (r *Radio) command(cmd byte) error {
	return r.transact([]byte{cmd}, make([]byte, 1))
}

// Configure runs the fixed register sequence: power-down reset, disable
// auto-acknowledgment (the receiver disables it too), pipe 0 enabled,
// 5-byte addresses, fixed retransmit budget, channel, 250 kbps at 0 dBm,
// both addresses, dynamic payloads, clear status, power up in the
// configured role.
func (r *Radio) Configure() error {
	if err := r.ce.Out(gpio.Low); err != nil {
		return fmt.Errorf("nrf24: configure: %w", err)
	}

	steps := []struct {
		reg   byte
		value byte
	}{
		{regConfig, configPowerDown},
		{regEnAA, 0x00},
		{regEnRxAddr, 0x01},
		{regSetupAW, addressWidth5},
		{regSetupRetr, setupRetrValue},
		{regRFCh, r.cfg.Channel},
		{regRFSetup, rfSetupValue},
	}
	for i, s := range steps {
		if err := r.writeReg(s.reg, s.value); err != nil {
			return fmt.Errorf("nrf24: configure step %d: %w", i, err)
		}
		if i == 0 {
			r.sleep(5 * time.Millisecond) // power-down settle
		}
	}

	if err := r.writeRegBytes(regTxAddr, r.cfg.Address[:]); err != nil {
		return fmt.Errorf("nrf24: set TX address: %w", err)
	}
	if err := r.writeRegBytes(regRxAddrP0, r.cfg.Address[:]); err != nil {
		return fmt.Errorf("nrf24: set RX address: %w", err)
	}

	tail := []struct {
		reg   byte
		value byte
	}{
		{regRxPwP0, staticPayload},
		{regFeature, featureDynPD},
		{regDynPD, dynPDPipe0},
		{regStatus, statusClear},
	}
	for _, s := range tail {
		if err := r.writeReg(s.reg, s.value); err != nil {
			return fmt.Errorf("nrf24: configure: %w", err)
		}
	}

	mode := byte(configTxUp)
	if r.role == RoleReceive {
		mode = configRxUp
	}
	if err := r.writeReg(regConfig, mode); err != nil {
		return fmt.Errorf("nrf24: power up: %w", err)
	}
	r.sleep(2 * time.Millisecond) // oscillator start-up

	r.configured = true
	r.log.Info("radio configured",
		"channel", r.cfg.Channel,
		"address", string(r.cfg.Address[:]),
		"rate", "250kbps",
		"auto_ack", false,
	)
	return nil
}

// Transmit flushes the TX FIFO, loads the payload, pulses CE for 15 µs to
// latch the transmission and polls STATUS until the radio confirms
// (TX_DS), gives up (MAX_RT) or the timeout elapses. On timeout nothing is
// cleared: the caller must not assume the hardware state is clean.
func (r *Radio) Transmit(payload []byte, timeout time.Duration) error {
	if !r.configured {
		return fmt.Errorf("nrf24: transmit before Configure")
	}
	if len(payload) == 0 || len(payload) > 32 {
		return fmt.Errorf("nrf24: payload size %d out of range", len(payload))
	}

	if err := r.command(cmdFlushTx); err != nil {
		return err
	}
	w := append([]byte{cmdTxPayload}, payload...)
	if err := r.transact(w, make([]byte, len(w))); err != nil {
		return err
	}

	if err := r.ce.Out(gpio.High); err != nil {
		return fmt.Errorf("nrf24: CE pulse: %w", err)
	}
	r.sleep(15 * time.Microsecond)
	if err := r.ce.Out(gpio.Low); err != nil {
		return fmt.Errorf("nrf24: CE pulse: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		status, err := r.readReg(regStatus)
		if err != nil {
			return err
		}
		if status&statusTxDS != 0 {
			return r.writeReg(regStatus, statusTxDS)
		}
		if status&statusMaxRT != 0 {
			if err := r.writeReg(regStatus, statusMaxRT); err != nil {
				return err
			}
			return transport.ErrMaxRetransmits
		}
		if !time.Now().Before(deadline) {
			return transport.ErrTxTimeout
		}
		r.sleep(time.Millisecond)
	}
}

// StartListening raises CE so a receive-role radio starts monitoring the
// pipe. Configure must have run first.
func (r *Radio) StartListening() error {
	if !r.configured {
		if err := r.Configure(); err != nil {
			return err
		}
	}
	if err := r.ce.Out(gpio.High); err != nil {
		return fmt.Errorf("nrf24: enter listen: %w", err)
	}
	r.sleep(130 * time.Microsecond) // RX settling
	r.listening = true
	return nil
}

// StopListening drops CE, leaving the radio in standby.
func (r *Radio) StopListening() error {
	r.listening = false
	if err := r.ce.Out(gpio.Low); err != nil {
		return fmt.Errorf("nrf24: leave listen: %w", err)
	}
	return nil
}

// Poll checks for a pending payload. It returns (nil, nil) when the RX FIFO
// is empty. Dynamic payload lengths below the minimum decodable size are
// flushed and reported as transport.ErrRuntPayload; lengths above 32 are a
// FIFO corruption and flushed likewise.
func (r *Radio) Poll() ([]byte, error) {
	status, err := r.readReg(regStatus)
	if err != nil {
		return nil, err
	}
	if status&statusRxDR == 0 {
		fifo, err := r.readReg(regFIFO)
		if err != nil {
			return nil, err
		}
		if fifo&fifoRxEmpty != 0 {
			return nil, nil
		}
	}

	width, err := r.payloadWidth()
	if err != nil {
		return nil, err
	}
	if width > 32 {
		if err := r.command(cmdFlushRx); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("nrf24: corrupt payload width %d", width)
	}
	if width < protocol.MinDecodeSize {
		if err := r.discardPayload(int(width)); err != nil {
			return nil, err
		}
		return nil, transport.ErrRuntPayload
	}

	w := make([]byte, 1+width)
	w[0] = cmdRxPayload
	for i := 1; i < len(w); i++ {
		w[i] = cmdNop
	}
	rx := make([]byte, len(w))
	if err := r.transact(w, rx); err != nil {
		return nil, err
	}
	if err := r.writeReg(regStatus, statusRxDR); err != nil {
		return nil, err
	}

	payload := make([]byte, width)
	copy(payload, rx[1:])
	return payload, nil
}

// PowerDown parks CE and drops PWR_UP.
func (r *Radio) PowerDown() error {
	if err := r.ce.Out(gpio.Low); err != nil {
		return fmt.Errorf("nrf24: power down: %w", err)
	}
	return r.writeReg(regConfig, configPowerDown)
}

func (r *Radio) payloadWidth() (byte, error) {
	w := []byte{cmdRxPlWidth, cmdNop}
	rx := make([]byte, len(w))
	if err := r.transact(w, rx); err != nil {
		return 0, err
	}
	return rx[1], nil
}

// discardPayload reads and drops a runt payload so the FIFO advances, then
// clears RX_DR.
func (r *Radio) discardPayload(width int) error {
	if width > 0 {
		w := make([]byte, 1+width)
		w[0] = cmdRxPayload
		if err := r.transact(w, make([]byte, len(w))); err != nil {
			return err
		}
	}
	return r.writeReg(regStatus, statusRxDR)
}
