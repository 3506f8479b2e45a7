// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oceanops/pioneergw/pkg/bus"
	"github.com/oceanops/pioneergw/pkg/pioneer"
)

const earthRadiusM = 6378137.0

// Publisher is the outbound domain-bus boundary.
type Publisher interface {
	Publish(ev bus.Event) error
}

// commandChannel is the coordinator's view of the stream channel.
type commandChannel interface {
	Connect() error
	Disconnect()
	IsConnected() bool
	State() State
	Send(p []byte) int
}

// telemetryChannel is the coordinator's view of the datagram channel.
type telemetryChannel interface {
	Connect(listenPort int) error
	Disconnect()
	State() State
}

// Coordinator owns both channels, the raw-capture streams, and the
// liveness/clock policy. Decode entry points (the frame processors) are
// safe to invoke concurrently from the two receive goroutines; the few
// pieces of state they share are individually locked. Liveness counters
// (connection epoch, retry bookkeeping) belong to the run loop alone.
type Coordinator struct {
	cfg     Config
	log     zerolog.Logger
	pub     Publisher
	backoff Backoff

	telemetryReg *pioneer.Registry
	replyReg     *pioneer.Registry

	stream   commandChannel
	datagram telemetryChannel
	captures *CaptureSet

	clock func() time.Time

	sendMu sync.Mutex

	syncMu       sync.Mutex
	lastTimeSync time.Time

	// Run-loop owned.
	connectedAt time.Time
}

// New builds a coordinator and its channels from cfg. pub may be
// bus.Discard when no bus endpoint is configured.
func New(cfg Config, log zerolog.Logger, pub Publisher) *Coordinator {
	c := &Coordinator{
		cfg:          cfg,
		log:          log.With().Str("component", "gateway").Logger(),
		pub:          pub,
		backoff:      DefaultBackoff(),
		telemetryReg: pioneer.TelemetryRegistry(),
		replyReg:     pioneer.ReplyRegistry(),
		captures:     NewCaptureSet(log),
		clock:        time.Now,
	}

	c.stream = NewStreamChannel(
		cfg.streamDialer(),
		FrameProcessorFunc(c.parseReplies),
		c.captures.Replies,
		StateSinkFunc(c.channelState),
		log,
	)
	c.datagram = NewDatagramChannel(
		FrameProcessorFunc(c.parseTelemetry),
		c.captures.Telemetry,
		StateSinkFunc(c.channelState),
		c.acceptance(),
		log,
	)
	return c
}

// acceptance builds the UDP source filter, nil when filtering is off.
func (c *Coordinator) acceptance() AcceptFunc {
	if !c.cfg.Telemetry.FilterSource {
		return nil
	}
	want := net.ParseIP(c.cfg.Stream.Address)
	return func(sender *net.UDPAddr) bool {
		return want != nil && want.Equal(sender.IP)
	}
}

// Run drives the gateway until ctx is cancelled: initial connects, the
// watchdog ticker, and the channel health check with backoff between
// reconnect attempts. All liveness bookkeeping happens here.
func (c *Coordinator) Run(ctx context.Context) error {
	c.connectedAt = c.clock()

	if c.cfg.Capture.Enabled {
		dir := filepath.Join(c.cfg.Capture.Dir, c.clock().Format("20060102_150405"))
		if err := c.captures.StartAll(dir); err != nil {
			c.log.Warn().Err(err).Msg("raw capture unavailable")
		}
	}

	c.openTelemetry()
	c.openStream()

	watchdog := time.NewTicker(WatchdogInterval)
	defer watchdog.Stop()
	health := time.NewTicker(HealthInterval)
	defer health.Stop()

	rng := rand.New(rand.NewSource(c.clock().UnixNano()))
	var streamAttempts, telmAttempts int
	var streamRetryAt, telmRetryAt time.Time

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return ctx.Err()

		case <-watchdog.C:
			c.sendWatchdog()

		case <-health.C:
			now := c.clock()
			if !c.cfg.Gateway.ListenOnly && retryEligible(c.stream.State()) && !now.Before(streamRetryAt) {
				streamAttempts++
				if c.openStream() {
					streamAttempts = 0
				} else {
					streamRetryAt = now.Add(c.backoff.Delay(streamAttempts, rng))
				}
			}
			if retryEligible(c.datagram.State()) && !now.Before(telmRetryAt) {
				telmAttempts++
				if c.openTelemetry() {
					telmAttempts = 0
				} else {
					telmRetryAt = now.Add(c.backoff.Delay(telmAttempts, rng))
				}
			}
		}
	}
}

// Close releases every resource unconditionally; a failure tearing one
// down never blocks the others. Idempotent.
func (c *Coordinator) Close() {
	c.stream.Disconnect()
	c.datagram.Disconnect()
	c.captures.StopAll()
}

// openStream attempts the command-channel connect. Failures degrade to
// retry-later, never propagate.
func (c *Coordinator) openStream() bool {
	if c.cfg.Gateway.ListenOnly {
		return true
	}
	c.stream.Disconnect()
	if err := c.stream.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("command channel connect failed, retrying")
		return false
	}
	c.connectedAt = c.clock()
	return true
}

// openTelemetry attempts the telemetry bind.
func (c *Coordinator) openTelemetry() bool {
	c.datagram.Disconnect()
	if err := c.datagram.Connect(c.cfg.Telemetry.ListenPort); err != nil {
		c.log.Warn().Err(err).Msg("telemetry channel bind failed, retrying")
		return false
	}
	return true
}

// channelState is the entity-state callback for both channels. Errors
// are recoverable degradations, not fatal.
func (c *Coordinator) channelState(name string, s State, cause error) {
	ev := c.log.Info()
	if s == StateError {
		ev = c.log.Warn().Err(cause)
	}
	ev.Str("state", s.String()).Msgf("%s channel state", name)
}

// SendCommand encodes and transmits one command on the stream channel,
// recording the raw bytes for audit on success. It returns the byte
// count sent; 0 covers listen-only mode, a disconnected channel, and
// encode or transmit failures. It never panics or propagates errors.
func (c *Coordinator) SendCommand(cmd pioneer.Command) int {
	if c.cfg.Gateway.ListenOnly || !c.stream.IsConnected() {
		return 0
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	wire, err := pioneer.Encode(cmd)
	if err != nil {
		c.log.Error().Err(err).Msg("command not sent")
		return 0
	}
	sd := c.stream.Send(wire)
	if sd > 0 {
		c.log.Debug().Int("bytes", sd).Uint16("code", cmd.Code()).Msg("command sent")
		c.captures.Commands.WriteRaw(wire)
		c.mirrorBlob("commands", wire)
	}
	return sd
}

// sendWatchdog emits the keep-alive with the elapsed connection
// duration, saturating rather than failing once a session outlives the
// int16 wire slot.
func (c *Coordinator) sendWatchdog() {
	if !c.stream.IsConnected() {
		return
	}
	secs := int64(c.clock().Sub(c.connectedAt).Seconds())
	if secs > math.MaxInt16 {
		secs = math.MaxInt16
	}
	c.SendCommand(pioneer.CmdWatchdogV1{ConnectionDuration: int16(secs)})
}

// HandleEvent implements bus.Handler for the subscribed event kinds.
func (c *Coordinator) HandleEvent(ev bus.Event) {
	switch e := ev.(type) {
	case bus.PositionEstimate:
		c.handleEstimate(e)
	case bus.LoggingControl:
		c.handleLoggingControl(e)
	}
}

// handleEstimate forwards an external position fix to the vehicle as a
// geolocation command, unless telemetry-derived estimation is enabled
// (that would feed our own output back to the vehicle).
func (c *Coordinator) handleEstimate(e bus.PositionEstimate) {
	if c.cfg.Gateway.NavFromTelemetry {
		return
	}
	lat, lon := displace(e.Latitude, e.Longitude, e.NorthOffset, e.EastOffset)
	c.SendCommand(pioneer.CmdUserGeoLocationV1{Latitude: lat, Longitude: lon})
}

// handleLoggingControl rolls the capture session to the supervisor's
// directory, or closes it.
func (c *Coordinator) handleLoggingControl(e bus.LoggingControl) {
	switch e.Op {
	case bus.LoggingStarted:
		if !c.cfg.Capture.Enabled {
			return
		}
		dir := filepath.Join(c.cfg.Capture.Dir, e.Name)
		if err := c.captures.StartAll(dir); err != nil {
			c.log.Warn().Err(err).Msg("capture session start failed")
		}
	case bus.LoggingStopped:
		c.captures.StopAll()
	}
}

// parseTelemetry is the datagram channel's frame processor.
func (c *Coordinator) parseTelemetry(buf []byte, offset, length int) int {
	msg, n := pioneer.Decode(buf, offset, length, c.telemetryReg)
	if n == 0 {
		return c.resync(c.telemetryReg, buf, offset, length)
	}

	c.mirrorBlob("telemetry", buf[offset:offset+n])

	switch m := msg.(type) {
	case pioneer.TelemetryV1:
		c.syncVehicleClock(m.Time)
		c.handleTelemetryV1(m)
	case pioneer.TelemetryV2:
		c.syncVehicleClock(m.Time)
		c.handleTelemetryV2(m)
	case pioneer.CompassCalibrationV2:
		c.log.Debug().
			Uint8("thruster", m.ProgressThruster).
			Uint8("compass", m.ProgressCompass).
			Msg("compass calibration progress")
	}
	return n
}

// parseReplies is the stream channel's frame processor.
func (c *Coordinator) parseReplies(buf []byte, offset, length int) int {
	msg, n := pioneer.Decode(buf, offset, length, c.replyReg)
	if n == 0 {
		return c.resync(c.replyReg, buf, offset, length)
	}

	c.mirrorBlob("replies", buf[offset:offset+n])

	// No sequence numbers on this wire: replies are fire-and-forget
	// notifications matched by discriminator only.
	switch m := msg.(type) {
	case pioneer.ReplyAckV2:
		c.log.Debug().Uint8("command", m.AckedCommand).Msg("command acknowledged")
	case pioneer.ReplyPingV2:
		c.log.Debug().Msg("ping reply")
	case pioneer.ReplyCameraParametersV2:
		c.log.Debug().Int32("bitrate", m.Bitrate).Msg("camera parameters")
	}
	return n
}

// resync decides what a zero-consumed decode means. An unrecognized
// discriminator sheds exactly one byte so the channel advances and the
// capture sink records the skipped span; a registered discriminator
// with a short buffer waits for more bytes.
func (c *Coordinator) resync(reg *pioneer.Registry, buf []byte, offset, length int) int {
	code, ok := reg.CodeAt(buf, offset, length)
	if !ok {
		return 0
	}
	if _, known := reg.Lookup(code); known {
		return 0
	}
	return 1
}

// syncVehicleClock applies the clock-correction policy on a telemetry
// clock sample. Called from the datagram receive goroutine; the
// last-correction timestamp is the only state it shares and it is
// locked.
func (c *Coordinator) syncVehicleClock(vehicleMsec uint32) {
	if !c.cfg.Gateway.SetVehicleTime || c.cfg.Gateway.ListenOnly {
		return
	}

	now := c.clock()

	c.syncMu.Lock()
	throttled := now.Sub(c.lastTimeSync) < TimeSyncMinInterval
	c.syncMu.Unlock()
	if throttled || !clockSkewExceeded(now, vehicleMsec) {
		return
	}

	ts := now.Unix()
	if ts > math.MaxInt32 {
		c.log.Error().Int64("unix", ts).Msg("local time does not fit the wire slot")
		return
	}
	c.log.Warn().Msg("correcting vehicle clock")
	if c.SendCommand(pioneer.CmdSetSystemTimeV2{UnixTimestamp: int32(ts)}) > 0 {
		c.syncMu.Lock()
		c.lastTimeSync = c.clock()
		c.syncMu.Unlock()
	}
}

func (c *Coordinator) handleTelemetryV1(m pioneer.TelemetryV1) {
	c.publishNav(float64(m.Depth), float64(m.Roll), float64(m.Pitch), float64(m.Yaw),
		float64(m.WaterTemp), 0)
}

func (c *Coordinator) handleTelemetryV2(m pioneer.TelemetryV2) {
	c.publishNav(float64(m.Depth), float64(m.Roll), float64(m.Pitch), float64(m.Yaw),
		float64(m.WaterTemp), float64(m.RTClock))
}

// publishNav republishes one telemetry sample in engineering units. raw
// arguments carry wire scaling.
func (c *Coordinator) publishNav(depthRaw, rollRaw, pitchRaw, yawRaw, tempRaw, clockSec float64) {
	depth := depthRaw / pioneer.DepthScale
	roll := radians(rollRaw / pioneer.AngleScale)
	pitch := radians(pitchRaw / pioneer.AngleScale)
	yaw := radians(yawRaw / pioneer.AngleScale)

	c.publish(bus.Depth{Meters: depth})
	c.publish(bus.Orientation{Roll: roll, Pitch: pitch, Yaw: yaw, Clock: clockSec})
	c.publish(bus.Temperature{Celsius: tempRaw / pioneer.TemperatureScale})

	if c.cfg.Gateway.NavFromTelemetry {
		c.publish(bus.NavState{
			Latitude:  c.cfg.Gateway.HomeLatitude,
			Longitude: c.cfg.Gateway.HomeLongitude,
			Depth:     depth,
			Roll:      roll,
			Pitch:     pitch,
			Yaw:       yaw,
		})
	}
}

func (c *Coordinator) publish(ev bus.Event) {
	if c.pub == nil {
		return
	}
	if err := c.pub.Publish(ev); err != nil {
		c.log.Warn().Err(err).Str("kind", ev.Kind()).Msg("bus publish failed")
	}
}

// mirrorBlob republishes a captured span as a binary blob event.
func (c *Coordinator) mirrorBlob(stream string, span []byte) {
	if !c.cfg.Capture.MirrorToBus {
		return
	}
	// The span aliases a receive buffer that is about to be reused.
	c.publish(bus.RawBlob{Stream: stream, Data: bytes.Clone(span)})
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// displace shifts a geodetic position by a local north/east offset in
// metres, spherical approximation.
func displace(latDeg, lonDeg, northM, eastM float64) (float64, float64) {
	lat := latDeg + (northM/earthRadiusM)*(180/math.Pi)
	lon := lonDeg + (eastM/(earthRadiusM*math.Cos(radians(lat))))*(180/math.Pi)
	return lat, lon
}

// String describes the gateway endpoints for status output.
func (c *Coordinator) String() string {
	return fmt.Sprintf("pioneer gateway (%s, udp :%d)", c.cfg.streamDialer(), c.cfg.Telemetry.ListenPort)
}
