// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "PIONEERGW_LOG_LEVEL"
	EnvLogNoColor = "PIONEERGW_LOG_NOCOLOR"
)

// Init builds the root logger: console output on stderr, level from the
// configured name with the environment taking precedence. It also
// installs the logger as the zerolog global so package-level logging in
// dependencies lands in the same stream.
func Init(app, level string) zerolog.Logger {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv(EnvLogNoColor) != "",
	}
	logger := zerolog.New(output).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall
// back to info rather than failing startup.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
