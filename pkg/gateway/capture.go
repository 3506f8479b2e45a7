// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// CaptureLog is one append-only raw-traffic file. Writes outside a
// session are no-ops; inside a session they go through a buffered writer
// whose flushes are the only backpressure a slow disk applies to the
// receive loops. Capture never drops.
type CaptureLog struct {
	name string
	log  zerolog.Logger

	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Start opens (or rolls to) the capture file dir/<name>.bin. A session
// already in progress is closed first.
func (l *CaptureLog) Start(dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeLocked()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("capture dir: %w", err)
	}
	path := filepath.Join(dir, l.name+".bin")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("capture file: %w", err)
	}
	l.f = f
	l.w = bufio.NewWriter(f)
	l.log.Info().Str("path", path).Msg("capture started")
	return nil
}

// Stop flushes and closes the current session, if any.
func (l *CaptureLog) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeLocked()
}

func (l *CaptureLog) closeLocked() {
	if l.f == nil {
		return
	}
	if err := l.w.Flush(); err != nil {
		l.log.Warn().Err(err).Msg("capture flush")
	}
	if err := l.f.Close(); err != nil {
		l.log.Warn().Err(err).Msg("capture close")
	}
	l.f = nil
	l.w = nil
}

// WriteRaw implements RawSink.
func (l *CaptureLog) WriteRaw(p []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return
	}
	if _, err := l.w.Write(p); err != nil {
		l.log.Warn().Err(err).Msg("capture write")
	}
}

// CaptureSet is the closed set of raw capture streams. The set is fixed
// at compile time, so they are named fields rather than a keyed map.
type CaptureSet struct {
	Telemetry *CaptureLog
	Commands  *CaptureLog
	Replies   *CaptureLog
}

// NewCaptureSet builds the three capture logs.
func NewCaptureSet(log zerolog.Logger) *CaptureSet {
	mk := func(name string) *CaptureLog {
		return &CaptureLog{name: name, log: log.With().Str("capture", name).Logger()}
	}
	return &CaptureSet{
		Telemetry: mk("telemetry"),
		Commands:  mk("commands"),
		Replies:   mk("replies"),
	}
}

// StartAll opens a session in dir for every stream. A failure on one
// stream does not keep the others from starting; the first error is
// returned.
func (s *CaptureSet) StartAll(dir string) error {
	var first error
	for _, l := range s.all() {
		if err := l.Start(dir); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// StopAll closes every stream unconditionally.
func (s *CaptureSet) StopAll() {
	for _, l := range s.all() {
		l.Stop()
	}
}

func (s *CaptureSet) all() []*CaptureLog {
	return []*CaptureLog{s.Telemetry, s.Commands, s.Replies}
}
