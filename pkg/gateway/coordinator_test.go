// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oceanops/pioneergw/pkg/bus"
	"github.com/oceanops/pioneergw/pkg/pioneer"
)

// ============================================================
// Fakes
// ============================================================

type fakeCommandChannel struct {
	mu        sync.Mutex
	connected bool
	sent      [][]byte
}

func (f *fakeCommandChannel) Connect() error { f.connected = true; return nil }
func (f *fakeCommandChannel) Disconnect()    { f.connected = false }
func (f *fakeCommandChannel) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
func (f *fakeCommandChannel) State() State {
	if f.IsConnected() {
		return StateConnected
	}
	return StateDisconnected
}
func (f *fakeCommandChannel) Send(p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), p...)
	f.sent = append(f.sent, cp)
	return len(p)
}
func (f *fakeCommandChannel) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}
func (f *fakeCommandChannel) framesWithCode(code byte) [][]byte {
	var out [][]byte
	for _, fr := range f.frames() {
		if len(fr) > 0 && fr[0] == code {
			out = append(out, fr)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []bus.Event
}

func (f *fakePublisher) Publish(ev bus.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}
func (f *fakePublisher) byKind(kind string) []bus.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bus.Event
	for _, ev := range f.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// newTestCoordinator wires a coordinator with fakes and a controllable
// clock.
func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *fakeCommandChannel, *fakePublisher, *time.Time) {
	t.Helper()
	pub := &fakePublisher{}
	c := New(cfg, zerolog.Nop(), pub)
	ch := &fakeCommandChannel{connected: true}
	c.stream = ch

	now := time.UnixMilli(5_000_000)
	c.clock = func() time.Time { return now }
	return c, ch, pub, &now
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Capture.Enabled = false
	cfg.Gateway.SetVehicleTime = false
	return cfg
}

// buildTelemetryV2Frame builds a wire frame carrying the given clock
// sample and depth.
func buildTelemetryV2Frame(timeMsec uint32, depthMM int32, yawCentideg int16) []byte {
	b := binary.BigEndian.AppendUint16(nil, pioneer.CodeTelemetryV2)
	b = binary.LittleEndian.AppendUint32(b, timeMsec)
	b = binary.LittleEndian.AppendUint32(b, 0) // rt clock
	b = binary.LittleEndian.AppendUint32(b, uint32(depthMM))
	b = binary.LittleEndian.AppendUint16(b, 0) // roll
	b = binary.LittleEndian.AppendUint16(b, 0) // pitch
	b = binary.LittleEndian.AppendUint16(b, uint16(yawCentideg))
	b = binary.LittleEndian.AppendUint16(b, 15000) // battery
	b = binary.LittleEndian.AppendUint16(b, 182)   // water temp
	b = binary.LittleEndian.AppendUint16(b, 0)     // camera tilt
	return b
}

// ============================================================
// Send gating
// ============================================================

func TestSendCommand_ListenOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.ListenOnly = true
	c, ch, _, _ := newTestCoordinator(t, cfg)

	if n := c.SendCommand(pioneer.CmdWatchdogV1{ConnectionDuration: 42}); n != 0 {
		t.Errorf("SendCommand returned %d in listen-only mode, want 0", n)
	}
	if n := c.SendCommand(pioneer.CmdPingV2{}); n != 0 {
		t.Errorf("SendCommand returned %d in listen-only mode, want 0", n)
	}
	if len(ch.frames()) != 0 {
		t.Errorf("%d frames transmitted in listen-only mode", len(ch.frames()))
	}
}

func TestSendCommand_Disconnected(t *testing.T) {
	c, ch, _, _ := newTestCoordinator(t, testConfig())
	ch.connected = false

	if n := c.SendCommand(pioneer.CmdSetSystemTimeV2{UnixTimestamp: 1}); n != 0 {
		t.Errorf("SendCommand returned %d while disconnected, want 0", n)
	}
	if len(ch.frames()) != 0 {
		t.Error("frame transmitted while disconnected")
	}
}

func TestSendCommand_EncodeFailure(t *testing.T) {
	c, ch, _, _ := newTestCoordinator(t, testConfig())

	if n := c.SendCommand(pioneer.CmdUserGeoLocationV1{Latitude: 200}); n != 0 {
		t.Errorf("SendCommand returned %d for an unencodable command, want 0", n)
	}
	if len(ch.frames()) != 0 {
		t.Error("frame transmitted despite encode failure")
	}
}

func TestSendCommand_AuditsOnSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.Capture.MirrorToBus = true
	c, ch, pub, _ := newTestCoordinator(t, cfg)

	n := c.SendCommand(pioneer.CmdWatchdogV1{ConnectionDuration: 42})
	if n != 3 {
		t.Fatalf("SendCommand returned %d, want 3", n)
	}
	frames := ch.frames()
	if len(frames) != 1 || frames[0][0] != byte(pioneer.CodeCmdWatchdogV1) {
		t.Fatalf("transmitted frames: %v", frames)
	}
	blobs := pub.byKind("rawblob")
	if len(blobs) != 1 {
		t.Fatalf("%d raw blobs mirrored, want 1", len(blobs))
	}
	if blob := blobs[0].(bus.RawBlob); blob.Stream != "commands" {
		t.Errorf("blob stream %q, want commands", blob.Stream)
	}
}

// ============================================================
// Watchdog
// ============================================================

func TestWatchdog_CarriesConnectionDuration(t *testing.T) {
	c, ch, _, now := newTestCoordinator(t, testConfig())
	c.connectedAt = *now
	*now = now.Add(42 * time.Second)

	c.sendWatchdog()

	frames := ch.framesWithCode(byte(pioneer.CodeCmdWatchdogV1))
	if len(frames) != 1 {
		t.Fatalf("%d watchdog frames, want 1", len(frames))
	}
	if got := int16(binary.LittleEndian.Uint16(frames[0][1:])); got != 42 {
		t.Errorf("connection duration %d, want 42", got)
	}
}

func TestWatchdog_SaturatesDuration(t *testing.T) {
	c, ch, _, now := newTestCoordinator(t, testConfig())
	c.connectedAt = *now
	*now = now.Add(20 * time.Hour)

	c.sendWatchdog()

	frames := ch.framesWithCode(byte(pioneer.CodeCmdWatchdogV1))
	if len(frames) != 1 {
		t.Fatalf("%d watchdog frames, want 1", len(frames))
	}
	if got := int16(binary.LittleEndian.Uint16(frames[0][1:])); got != 32767 {
		t.Errorf("connection duration %d, want saturation at 32767", got)
	}
}

func TestWatchdog_SkippedWhenDisconnected(t *testing.T) {
	c, ch, _, _ := newTestCoordinator(t, testConfig())
	ch.connected = false

	c.sendWatchdog()

	if len(ch.frames()) != 0 {
		t.Error("watchdog transmitted while disconnected")
	}
}

// ============================================================
// Clock sync policy
// ============================================================

func TestClockSync_CorrectsLargeSkew(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.SetVehicleTime = true
	c, ch, _, _ := newTestCoordinator(t, cfg)

	// Vehicle clock at 0 ms, local at 5_000_000 ms: way past tolerance.
	frame := buildTelemetryV2Frame(0, 0, 0)
	if n := c.parseTelemetry(frame, 0, len(frame)); n != len(frame) {
		t.Fatalf("consumed %d, want %d", n, len(frame))
	}

	sets := ch.framesWithCode(byte(pioneer.CodeCmdSetSystemTimeV2))
	if len(sets) != 1 {
		t.Fatalf("%d set-time commands, want 1", len(sets))
	}
	if got := int32(binary.LittleEndian.Uint32(sets[0][1:])); got != 5000 {
		t.Errorf("timestamp %d, want 5000", got)
	}
}

func TestClockSync_Throttled(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.SetVehicleTime = true
	c, ch, _, now := newTestCoordinator(t, cfg)

	frame := buildTelemetryV2Frame(0, 0, 0)
	c.parseTelemetry(frame, 0, len(frame))
	*now = now.Add(3 * time.Second) // inside the 5 s window
	c.parseTelemetry(frame, 0, len(frame))

	if sets := ch.framesWithCode(byte(pioneer.CodeCmdSetSystemTimeV2)); len(sets) != 1 {
		t.Errorf("%d set-time commands within the throttle window, want 1", len(sets))
	}

	*now = now.Add(3 * time.Second) // past it
	c.parseTelemetry(frame, 0, len(frame))
	if sets := ch.framesWithCode(byte(pioneer.CodeCmdSetSystemTimeV2)); len(sets) != 2 {
		t.Errorf("%d set-time commands after the window, want 2", len(sets))
	}
}

func TestClockSync_SmallSkewIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.SetVehicleTime = true
	c, ch, _, _ := newTestCoordinator(t, cfg)

	// Vehicle within 1000 ms of local: inside tolerance.
	frame := buildTelemetryV2Frame(4_999_000, 0, 0)
	c.parseTelemetry(frame, 0, len(frame))

	if sets := ch.framesWithCode(byte(pioneer.CodeCmdSetSystemTimeV2)); len(sets) != 0 {
		t.Errorf("%d set-time commands for sub-tolerance skew, want 0", len(sets))
	}
}

func TestClockSync_DisabledInListenOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.SetVehicleTime = true
	cfg.Gateway.ListenOnly = true
	c, ch, _, _ := newTestCoordinator(t, cfg)

	frame := buildTelemetryV2Frame(0, 0, 0)
	c.parseTelemetry(frame, 0, len(frame))

	if len(ch.frames()) != 0 {
		t.Error("clock correction transmitted in listen-only mode")
	}
}

// ============================================================
// Telemetry republish
// ============================================================

func TestTelemetry_PublishesScaledValues(t *testing.T) {
	c, _, pub, _ := newTestCoordinator(t, testConfig())

	// depth 5000 mm, yaw 9000 centidegrees.
	frame := buildTelemetryV2Frame(5_000_000, 5000, 9000)
	if n := c.parseTelemetry(frame, 0, len(frame)); n != len(frame) {
		t.Fatalf("consumed %d, want %d", n, len(frame))
	}

	depths := pub.byKind("depth")
	if len(depths) != 1 {
		t.Fatalf("%d depth events, want 1", len(depths))
	}
	if d := depths[0].(bus.Depth); d.Meters != 5.0 {
		t.Errorf("depth %v m, want 5.0", d.Meters)
	}

	orients := pub.byKind("orientation")
	if len(orients) != 1 {
		t.Fatalf("%d orientation events, want 1", len(orients))
	}
	o := orients[0].(bus.Orientation)
	if want := radians(90); o.Yaw < want-1e-9 || o.Yaw > want+1e-9 {
		t.Errorf("yaw %v rad, want %v", o.Yaw, want)
	}

	temps := pub.byKind("temperature")
	if len(temps) != 1 {
		t.Fatalf("%d temperature events, want 1", len(temps))
	}
	if temp := temps[0].(bus.Temperature); temp.Celsius != 18.2 {
		t.Errorf("temperature %v, want 18.2", temp.Celsius)
	}

	if nav := pub.byKind("navstate"); len(nav) != 0 {
		t.Errorf("nav state published without nav_from_telemetry")
	}
}

func TestTelemetry_SynthesizedNavState(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.NavFromTelemetry = true
	cfg.Gateway.HomeLatitude = 41.1847
	cfg.Gateway.HomeLongitude = -8.7065
	c, _, pub, _ := newTestCoordinator(t, cfg)

	frame := buildTelemetryV2Frame(5_000_000, 2500, 0)
	c.parseTelemetry(frame, 0, len(frame))

	navs := pub.byKind("navstate")
	if len(navs) != 1 {
		t.Fatalf("%d nav state events, want 1", len(navs))
	}
	nav := navs[0].(bus.NavState)
	if nav.Depth != 2.5 || nav.Latitude != 41.1847 {
		t.Errorf("nav state %+v", nav)
	}
}

func TestParseTelemetry_ResyncConsumesOneByte(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, testConfig())

	junk := append([]byte{0xFF, 0xFE}, buildTelemetryV2Frame(5_000_000, 100, 0)...)
	if n := c.parseTelemetry(junk, 0, len(junk)); n != 1 {
		t.Errorf("unknown discriminator consumed %d, want 1", n)
	}

	// A registered discriminator with a short buffer waits instead.
	partial := buildTelemetryV2Frame(5_000_000, 100, 0)[:10]
	if n := c.parseTelemetry(partial, 0, len(partial)); n != 0 {
		t.Errorf("partial frame consumed %d, want 0", n)
	}
}

// ============================================================
// Bus event handling
// ============================================================

func TestEstimate_ForwardsGeoLocation(t *testing.T) {
	c, ch, _, _ := newTestCoordinator(t, testConfig())

	c.HandleEvent(bus.PositionEstimate{Latitude: 41.0, Longitude: -8.0})

	frames := ch.framesWithCode(byte(pioneer.CodeCmdUserGeoLocationV1))
	if len(frames) != 1 {
		t.Fatalf("%d geolocation commands, want 1", len(frames))
	}
	if len(frames[0]) != 17 {
		t.Errorf("geolocation frame length %d, want 17", len(frames[0]))
	}
}

func TestEstimate_SuppressedWhenSynthesizing(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.NavFromTelemetry = true
	c, ch, _, _ := newTestCoordinator(t, cfg)

	c.HandleEvent(bus.PositionEstimate{Latitude: 41.0, Longitude: -8.0})

	if len(ch.frames()) != 0 {
		t.Error("geolocation forwarded while synthesizing nav state (feedback loop)")
	}
}

func TestLoggingControl_RollsCaptureSession(t *testing.T) {
	cfg := testConfig()
	cfg.Capture.Enabled = true
	cfg.Capture.Dir = t.TempDir()
	c, _, _, _ := newTestCoordinator(t, cfg)

	c.HandleEvent(bus.LoggingControl{Op: bus.LoggingStarted, Name: "20260826_101500"})
	c.captures.Commands.WriteRaw([]byte{'w', 42, 0})
	c.HandleEvent(bus.LoggingControl{Op: bus.LoggingStopped})

	path := filepath.Join(cfg.Capture.Dir, "20260826_101500", "commands.bin")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("capture file: %v", err)
	}
	if len(data) != 3 || data[0] != 'w' {
		t.Errorf("capture contents % X", data)
	}

	// Writes after stop are dropped, not errors.
	c.captures.Commands.WriteRaw([]byte{1, 2, 3})
	data, _ = os.ReadFile(path)
	if len(data) != 3 {
		t.Errorf("capture grew after session stop: %d bytes", len(data))
	}
}

func TestDisplace(t *testing.T) {
	lat, lon := displace(41.0, -8.0, 111_000, 0)
	if lat < 41.9 || lat > 42.1 {
		t.Errorf("111 km north moved latitude to %v, want ~42", lat)
	}
	if lon != -8.0 {
		t.Errorf("longitude drifted to %v with zero east offset", lon)
	}
}
