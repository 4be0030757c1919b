// Package config loads the node configuration from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neurofarm/agrispike/protocol"
)

// Config covers both roles; a transmitter node ignores the relay and
// sink sections, a receiver ignores the sampling interval.
type Config struct {
	Radio struct {
		SPIPort string `yaml:"spi_port"`
		CEPin   string `yaml:"ce_pin"`
		CSNPin  string `yaml:"csn_pin"`
		Channel uint8  `yaml:"channel"`
		Address string `yaml:"address"`
	} `yaml:"radio"`

	Relay struct {
		Pin       string `yaml:"pin"`
		ActiveLow bool   `yaml:"active_low"`
	} `yaml:"relay"`

	Sampling struct {
		Interval Duration `yaml:"interval"`
	} `yaml:"sampling"`

	Sinks struct {
		CSVPath    string `yaml:"csv_path"`
		SQLitePath string `yaml:"sqlite_path"`
		Influx     struct {
			URL    string `yaml:"url"`
			Token  string `yaml:"token"`
			Org    string `yaml:"org"`
			Bucket string `yaml:"bucket"`
		} `yaml:"influx"`
	} `yaml:"sinks"`

	SNN struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"snn"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Duration accepts Go duration strings like "3s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given: SPI0.0
// with the conventional CE/CSN pins of an nRF24 hat.
func Default() *Config {
	cfg := &Config{}
	cfg.Radio.SPIPort = "SPI0.0"
	cfg.Radio.CEPin = "GPIO22"
	cfg.Radio.CSNPin = "GPIO8"
	cfg.Radio.Channel = protocol.DefaultChannel
	cfg.Radio.Address = string(protocol.DefaultAddress[:])
	cfg.Relay.Pin = "GPIO17"
	cfg.Relay.ActiveLow = true
	cfg.Sampling.Interval = Duration(3 * time.Second)
	cfg.Log.Level = "INFO"
	return cfg
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Radio.Address) != protocol.AddressWidth {
		return fmt.Errorf("radio.address must be exactly %d bytes", protocol.AddressWidth)
	}
	if err := c.RadioConfig().Validate(); err != nil {
		return err
	}
	if c.Radio.SPIPort == "" {
		return fmt.Errorf("radio.spi_port is required")
	}
	if c.Radio.CEPin == "" || c.Radio.CSNPin == "" {
		return fmt.Errorf("radio.ce_pin and radio.csn_pin are required")
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("sampling.interval must be positive")
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// RadioConfig converts the radio section to the protocol layer's type.
// Validate catches addresses of the wrong length before this truncates.
func (c *Config) RadioConfig() protocol.RadioConfig {
	rc := protocol.RadioConfig{Channel: c.Radio.Channel}
	copy(rc.Address[:], c.Radio.Address)
	return rc
}

var logLevels = map[string]slog.Level{
	"DEBUG": slog.LevelDebug,
	"INFO":  slog.LevelInfo,
	"WARN":  slog.LevelWarn,
	"ERROR": slog.LevelError,
}

// LogLevel maps the configured level name, defaulting to INFO for
// anything unknown.
func (c *Config) LogLevel() slog.Level {
	if lvl, ok := logLevels[c.Log.Level]; ok {
		return lvl
	}
	return slog.LevelInfo
}
