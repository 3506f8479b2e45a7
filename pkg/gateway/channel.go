// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

// Package gateway runs the vehicle link: a TCP command/reply channel and
// a UDP telemetry channel feeding a coordinator that decodes frames,
// republishes them on the domain bus, and drives the watchdog and
// clock-sync policies.
package gateway

import "net"

// State is the lifecycle state of one channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// FrameProcessor consumes complete frames from a receive buffer.
//
// ProcessFrame inspects buf[offset:length] and returns the number of
// bytes it consumed. Zero means "not enough data yet, call again when
// more arrives". The channel invokes it only from its own receive
// goroutine, never concurrently with itself.
type FrameProcessor interface {
	ProcessFrame(buf []byte, offset, length int) int
}

// FrameProcessorFunc adapts a function to FrameProcessor.
type FrameProcessorFunc func(buf []byte, offset, length int) int

func (f FrameProcessorFunc) ProcessFrame(buf []byte, offset, length int) int {
	return f(buf, offset, length)
}

// RawSink receives exactly the bytes the processor consumed, including
// spans the processor shed while resynchronizing. Raw capture is an
// audit requirement; a slow sink may block the receive loop briefly but
// must not drop.
type RawSink interface {
	WriteRaw(p []byte)
}

// RawSinkFunc adapts a function to RawSink.
type RawSinkFunc func(p []byte)

func (f RawSinkFunc) WriteRaw(p []byte) { f(p) }

// StateSink is notified of channel state transitions. cause is non-nil
// for transitions into StateError.
type StateSink interface {
	ChannelState(name string, s State, cause error)
}

// StateSinkFunc adapts a function to StateSink.
type StateSinkFunc func(name string, s State, cause error)

func (f StateSinkFunc) ChannelState(name string, s State, cause error) { f(name, s, cause) }

// AcceptFunc decides whether a datagram from the given sender is
// processed. Rejected datagrams are dropped silently: neither processed
// nor captured. A nil AcceptFunc accepts everything.
type AcceptFunc func(sender *net.UDPAddr) bool
