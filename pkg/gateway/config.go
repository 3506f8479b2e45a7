// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the gateway configuration surface, loadable from TOML.
type Config struct {
	Gateway   GatewayConfig   `toml:"gateway"`
	Stream    StreamConfig    `toml:"stream"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Capture   CaptureConfig   `toml:"capture"`
	Bus       BusConfig       `toml:"bus"`
	Log       LogConfig       `toml:"log"`
}

// GatewayConfig covers the coordinator policies.
type GatewayConfig struct {
	// ListenOnly disables all outbound transmission and the command
	// channel; telemetry processing continues.
	ListenOnly bool `toml:"listen_only"`
	// CommTimeoutSec bounds connect attempts, 1-60.
	CommTimeoutSec int `toml:"comm_timeout_sec"`
	// SetVehicleTime enables the automatic clock correction policy.
	SetVehicleTime bool `toml:"set_vehicle_time"`
	// NavFromTelemetry synthesizes a full navigation state from
	// telemetry. Mutually exclusive with forwarding external position
	// estimates to the vehicle: enabling it suppresses that direction
	// to avoid a feedback loop.
	NavFromTelemetry bool `toml:"nav_from_telemetry"`
	// HomeLatitude/HomeLongitude anchor the synthesized navigation
	// state; the vehicle reports no position of its own.
	HomeLatitude  float64 `toml:"home_latitude"`
	HomeLongitude float64 `toml:"home_longitude"`
}

// StreamConfig selects and parameterizes the command channel transport.
type StreamConfig struct {
	Transport    string `toml:"transport"` // "tcp" or "serial"
	Address      string `toml:"address"`
	Port         int    `toml:"port"`
	SerialDevice string `toml:"serial_device"`
	SerialBaud   int    `toml:"serial_baud"`
}

// TelemetryConfig parameterizes the UDP telemetry channel.
type TelemetryConfig struct {
	ListenPort int `toml:"listen_port"`
	// FilterSource drops datagrams whose sender is not the configured
	// stream address.
	FilterSource bool `toml:"filter_source"`
}

// CaptureConfig controls raw-traffic capture.
type CaptureConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	// MirrorToBus republishes every captured span as a binary blob
	// event on the domain bus.
	MirrorToBus bool `toml:"mirror_to_bus"`
}

// BusConfig points at the domain bus endpoint.
type BusConfig struct {
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// LogConfig sets the logging level.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig mirrors the vehicle's factory network setup.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			CommTimeoutSec: 10,
			SetVehicleTime: true,
		},
		Stream: StreamConfig{
			Transport:  "tcp",
			Address:    "192.168.1.101",
			Port:       2011,
			SerialBaud: 115200,
		},
		Telemetry: TelemetryConfig{
			ListenPort: 2010,
		},
		Capture: CaptureConfig{
			Enabled: true,
			Dir:     "log",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot run with.
func (c Config) Validate() error {
	if c.Gateway.CommTimeoutSec < 1 || c.Gateway.CommTimeoutSec > 60 {
		return fmt.Errorf("comm_timeout_sec %d outside 1-60", c.Gateway.CommTimeoutSec)
	}
	switch c.Stream.Transport {
	case "tcp":
		if c.Stream.Address == "" || c.Stream.Port <= 0 || c.Stream.Port > 65535 {
			return fmt.Errorf("tcp transport needs address and port, got %q:%d", c.Stream.Address, c.Stream.Port)
		}
	case "serial":
		if c.Stream.SerialDevice == "" {
			return fmt.Errorf("serial transport needs serial_device")
		}
		if c.Stream.SerialBaud <= 0 {
			return fmt.Errorf("serial_baud %d invalid", c.Stream.SerialBaud)
		}
	default:
		return fmt.Errorf("unknown stream transport %q", c.Stream.Transport)
	}
	if c.Telemetry.ListenPort < 0 || c.Telemetry.ListenPort > 65535 {
		return fmt.Errorf("telemetry listen_port %d invalid", c.Telemetry.ListenPort)
	}
	if c.Telemetry.FilterSource && c.Stream.Address == "" {
		return fmt.Errorf("filter_source needs a stream address to filter against")
	}
	return nil
}

// streamDialer builds the configured dialer.
func (c Config) streamDialer() StreamDialer {
	if c.Stream.Transport == "serial" {
		return SerialDialer{Device: c.Stream.SerialDevice, Baud: c.Stream.SerialBaud}
	}
	return TCPDialer{
		Address: c.Stream.Address,
		Port:    c.Stream.Port,
		Timeout: time.Duration(c.Gateway.CommTimeoutSec) * time.Second,
	}
}
