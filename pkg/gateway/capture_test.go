// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestCaptureLog_SessionLifecycle(t *testing.T) {
	dir := t.TempDir()
	set := NewCaptureSet(zerolog.Nop())

	// Writes before a session are dropped silently.
	set.Telemetry.WriteRaw([]byte{0xDE, 0xAD})

	if err := set.StartAll(dir); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	set.Telemetry.WriteRaw([]byte{1, 2, 3})
	set.Commands.WriteRaw([]byte{4, 5})
	set.Replies.WriteRaw([]byte{6})
	set.StopAll()

	// Writes after the session are dropped too.
	set.Telemetry.WriteRaw([]byte{0xBE, 0xEF})

	cases := []struct {
		file string
		want []byte
	}{
		{"telemetry.bin", []byte{1, 2, 3}},
		{"commands.bin", []byte{4, 5}},
		{"replies.bin", []byte{6}},
	}
	for _, tc := range cases {
		got, err := os.ReadFile(filepath.Join(dir, tc.file))
		if err != nil {
			t.Fatalf("%s: %v", tc.file, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Errorf("%s = % X, want % X", tc.file, got, tc.want)
		}
	}
}

func TestCaptureLog_StartRollsSession(t *testing.T) {
	set := NewCaptureSet(zerolog.Nop())
	dirA := t.TempDir()
	dirB := t.TempDir()

	if err := set.Telemetry.Start(dirA); err != nil {
		t.Fatalf("start: %v", err)
	}
	set.Telemetry.WriteRaw([]byte{1})

	// Rolling to a new directory flushes and closes the old file.
	if err := set.Telemetry.Start(dirB); err != nil {
		t.Fatalf("roll: %v", err)
	}
	set.Telemetry.WriteRaw([]byte{2})
	set.Telemetry.Stop()

	a, err := os.ReadFile(filepath.Join(dirA, "telemetry.bin"))
	if err != nil {
		t.Fatalf("read old session: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dirB, "telemetry.bin"))
	if err != nil {
		t.Fatalf("read new session: %v", err)
	}
	if !bytes.Equal(a, []byte{1}) || !bytes.Equal(b, []byte{2}) {
		t.Errorf("sessions % X / % X, want 01 / 02", a, b)
	}
}

func TestCaptureLog_AppendsAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	set := NewCaptureSet(zerolog.Nop())

	for _, b := range []byte{1, 2} {
		if err := set.Commands.Start(dir); err != nil {
			t.Fatalf("start: %v", err)
		}
		set.Commands.WriteRaw([]byte{b})
		set.Commands.Stop()
	}

	got, err := os.ReadFile(filepath.Join(dir, "commands.bin"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("file = % X, want 01 02", got)
	}
}

func TestCaptureSet_StartAllContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	set := NewCaptureSet(zerolog.Nop())

	// Make the telemetry path unopenable by occupying it with a
	// directory.
	if err := os.MkdirAll(filepath.Join(dir, "telemetry.bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := set.StartAll(dir); err == nil {
		t.Fatal("StartAll reported no error for an unopenable stream")
	}
	defer set.StopAll()

	// The other streams still captured.
	set.Commands.WriteRaw([]byte{7})
	set.StopAll()
	got, err := os.ReadFile(filepath.Join(dir, "commands.bin"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{7}) {
		t.Errorf("commands = % X, want 07", got)
	}
}
