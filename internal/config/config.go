// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config defines the global configuration structure.
type Config struct {
	Devices []DeviceConfig `mapstructure:"devices"`
	Log     LogConfig      `mapstructure:"log"`
}

// LogConfig defines logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// DeviceConfig defines one serial bus and the registers polled on it.
type DeviceConfig struct {
	Name     string         `mapstructure:"name"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Poll     []PollConfig   `mapstructure:"poll"`
}

// SerialConfig defines the serial line settings.
type SerialConfig struct {
	Device      string        `mapstructure:"device"`
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	Parity      string        `mapstructure:"parity"`
	StopBits    int           `mapstructure:"stop_bits"`
	Timeout     time.Duration `mapstructure:"timeout"`      // read timeout on the port
	IdleTimeout time.Duration `mapstructure:"idle_timeout"` // close port after inactivity
}

// EngineConfig defines the bus engine timing knobs.
type EngineConfig struct {
	// QuietPeriod is the inter-character silence window marking a
	// frame boundary. Zero derives t3.5 from the baud rate.
	QuietPeriod time.Duration `mapstructure:"quiet_period"`

	// ResponseTimeout is the per-operation deadline from dispatch.
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
}

// SnapshotConfig defines where the poller persists last-seen values.
type SnapshotConfig struct {
	Type   string `mapstructure:"type"`   // "memory", "mmap", "sql"
	Path   string `mapstructure:"path"`   // File path for "mmap" type
	Driver string `mapstructure:"driver"` // SQL driver name, e.g. "sqlite3"
	DSN    string `mapstructure:"dsn"`    // SQL data source name
}

// PollConfig defines one polled register window.
type PollConfig struct {
	SlaveID  int           `mapstructure:"slave_id"`
	Start    uint16        `mapstructure:"start"`
	Quantity uint16        `mapstructure:"quantity"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoadConfig loads configuration from file.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/modbusrtu/")
		v.AddConfigPath("$HOME/.modbusrtu")
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate / Fixups
	for i := range config.Devices {
		dev := &config.Devices[i]
		fixupSerial(&dev.Serial)
		fixupEngine(&dev.Engine, dev.Serial.BaudRate)
		if dev.Snapshot.Type == "" {
			dev.Snapshot.Type = "memory"
		}
		for j := range dev.Poll {
			if dev.Poll[j].Interval == 0 {
				dev.Poll[j].Interval = time.Second
			}
			if dev.Poll[j].Quantity == 0 {
				dev.Poll[j].Quantity = 1
			}
		}
	}

	return &config, nil
}

func fixupSerial(s *SerialConfig) {
	s.Parity = strings.ToUpper(s.Parity)
	if s.BaudRate == 0 {
		s.BaudRate = 9600
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
	if s.Timeout == 0 {
		s.Timeout = 50 * time.Millisecond
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 60 * time.Second
	}
}

func fixupEngine(e *EngineConfig, baudRate int) {
	if e.QuietPeriod == 0 {
		e.QuietPeriod = quietPeriodForBaud(baudRate)
	}
	if e.ResponseTimeout == 0 {
		e.ResponseTimeout = 500 * time.Millisecond
	}
}

// quietPeriodForBaud derives the t3.5 inter-frame silence from the
// baud rate. Above 19200 baud the protocol fixes it at 1750 microseconds;
// below, it is 3.5 character times, with an RTU character being 11 bits
// on the wire (start + 8 data + parity/stop + stop).
func quietPeriodForBaud(baudRate int) time.Duration {
	if baudRate <= 0 || baudRate > 19200 {
		return 1750 * time.Microsecond
	}
	return time.Duration(38500000/baudRate) * time.Microsecond
}
