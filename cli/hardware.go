package cli

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/neurofarm/agrispike/config"
	"github.com/neurofarm/agrispike/driver/nrf24"
)

// openRadio resolves the SPI bus and GPIO lines named in the config and
// builds a driver for the requested role. The returned closer releases
// the bus.
func openRadio(cfg *config.Config, role nrf24.Role, log *slog.Logger) (*nrf24.Radio, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("init peripheral host: %w", err)
	}

	port, err := spireg.Open(cfg.Radio.SPIPort)
	if err != nil {
		return nil, nil, fmt.Errorf("open SPI port %s: %w", cfg.Radio.SPIPort, err)
	}
	// The nRF24L01+ tops out at 10 MHz in SPI mode 0.
	conn, err := port.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("connect SPI: %w", err)
	}

	ce, err := pinByName(cfg.Radio.CEPin)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	csn, err := pinByName(cfg.Radio.CSNPin)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}

	radio, err := nrf24.New(nrf24.Options{
		Bus:    conn,
		CE:     ce,
		CSN:    csn,
		Config: cfg.RadioConfig(),
		Role:   role,
		Log:    log,
	})
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return radio, port.Close, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("GPIO pin %s not found", name)
	}
	return pin, nil
}
