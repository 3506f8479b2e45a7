// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oceanops/pioneergw/pkg/gateway"
)

var (
	// Config file and overrides
	configPath string
	logLevel   string

	// Bus connection flags
	busURL         string
	busUsername    string
	busNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "pioneergw",
	Short: "Pioneer underwater vehicle gateway",
	Long: `Pioneergw bridges a Pioneer underwater vehicle to the vessel network.

It speaks the vehicle's binary protocol over a TCP command channel and a
UDP telemetry channel, republishes decoded telemetry on the domain bus,
and captures raw traffic for post-dive analysis.

For bus authentication, the password is read from the PIONEERGW_PASSWORD
environment variable, or prompted interactively if not set. A --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace/debug/info/warn/error)")

	rootCmd.PersistentFlags().StringVarP(&busURL, "bus-url", "u", "", "Domain bus URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&busUsername, "bus-username", "", "Username for bus HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&busNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration: file over defaults,
// flags over file.
func loadConfig() (gateway.Config, error) {
	cfg := gateway.DefaultConfig()
	if configPath != "" {
		loaded, err := gateway.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if busURL != "" {
		cfg.Bus.URL = busURL
	}
	if busUsername != "" {
		cfg.Bus.Username = busUsername
	}
	if busNoSSLVerify {
		cfg.Bus.NoSSLVerify = true
	}
	return cfg, cfg.Validate()
}
