// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/oceanops/pioneergw/pkg/bus"
	"github.com/oceanops/pioneergw/pkg/gateway"
)

// GetPassword retrieves the bus password from the environment or prompts
// the user.
func GetPassword() (string, error) {
	if pw := os.Getenv("PIONEERGW_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// openBus connects to the configured domain bus endpoint. Returns nil
// when no endpoint is configured; the gateway then runs standalone.
func openBus(cfg gateway.BusConfig, log zerolog.Logger) (*bus.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	password := ""
	if cfg.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return nil, err
		}
	}

	return bus.Dial(bus.Options{
		URL:         cfg.URL,
		Username:    cfg.Username,
		Password:    password,
		NoSSLVerify: cfg.NoSSLVerify,
	}, log)
}
