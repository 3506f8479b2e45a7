// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

import "encoding/binary"

// Shape describes one registered wire shape: its human name, the full
// frame size including the discriminator, and the field decoder. The
// decoder receives exactly Size bytes starting at the discriminator.
type Shape struct {
	Name   string
	Size   int
	Decode func(frame []byte) Message
}

// Registry maps discriminators to shapes for one channel. Registries are
// built once at start-up and shared read-only afterwards; Lookup takes no
// lock.
type Registry struct {
	codeSize int
	shapes   map[uint16]Shape
}

// NewRegistry creates an empty registry whose discriminators occupy
// codeSize bytes (1 for the command/reply channel, 2 for telemetry).
func NewRegistry(codeSize int) *Registry {
	return &Registry{
		codeSize: codeSize,
		shapes:   make(map[uint16]Shape),
	}
}

// Register adds a shape. Registering is not safe concurrently with
// Lookup; do it before the channels start.
func (r *Registry) Register(code uint16, s Shape) {
	r.shapes[code] = s
}

// Lookup returns the shape for code, if registered.
func (r *Registry) Lookup(code uint16) (Shape, bool) {
	s, ok := r.shapes[code]
	return s, ok
}

// CodeSize returns the discriminator width in bytes.
func (r *Registry) CodeSize() int {
	return r.codeSize
}

// CodeAt extracts the discriminator starting at buf[offset]. ok is false
// when fewer than CodeSize bytes remain.
func (r *Registry) CodeAt(buf []byte, offset, length int) (code uint16, ok bool) {
	if length-offset < r.codeSize {
		return 0, false
	}
	if r.codeSize == 1 {
		return uint16(buf[offset]), true
	}
	return binary.BigEndian.Uint16(buf[offset:]), true
}

// TelemetryRegistry builds the registry for the UDP telemetry channel.
func TelemetryRegistry() *Registry {
	r := NewRegistry(TelemetryCodeSize)
	r.Register(CodeTelemetryV1, Shape{
		Name:   "TELEMETRY_V1",
		Size:   telemetryV1Size,
		Decode: decodeTelemetryV1,
	})
	r.Register(CodeTelemetryV2, Shape{
		Name:   "TELEMETRY_V2",
		Size:   telemetryV2Size,
		Decode: decodeTelemetryV2,
	})
	r.Register(CodeCompassCalibrationV2, Shape{
		Name:   "COMPASS_CALIBRATION_V2",
		Size:   compassCalibrationV2Size,
		Decode: decodeCompassCalibrationV2,
	})
	return r
}

// ReplyRegistry builds the registry for the TCP command/reply channel.
// Command discriminators are deliberately absent: the vehicle never sends
// them, and the two channels must not cross-decode.
func ReplyRegistry() *Registry {
	r := NewRegistry(ReplyCodeSize)
	r.Register(CodeReplyAckV2, Shape{
		Name:   "REPLY_ACK_V2",
		Size:   replyAckV2Size,
		Decode: decodeReplyAckV2,
	})
	r.Register(CodeReplyPingV2, Shape{
		Name:   "REPLY_PING_V2",
		Size:   replyPingV2Size,
		Decode: decodeReplyPingV2,
	})
	r.Register(CodeReplyCameraParametersV2, Shape{
		Name:   "REPLY_CAMERA_PARAMETERS_V2",
		Size:   replyCameraParametersV2Size,
		Decode: decodeReplyCameraParametersV2,
	})
	return r
}
