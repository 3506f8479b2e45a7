// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

// Package pioneer implements the binary wire protocol spoken by
// Pioneer-class underwater vehicles.
//
// The vehicle broadcasts telemetry as UDP datagrams and accepts commands
// over a bidirectional TCP stream, answering with short reply frames.
// Every frame is self-describing: the leading discriminator (two bytes on
// the telemetry channel, one byte on the command/reply channel) selects
// the wire shape, and the shape fixes the frame length. There is no
// length prefix, checksum, or escaping on either channel.
//
// This package provides the typed message catalog, the discriminator
// registries for both channels, and the frame codec.
package pioneer

// Telemetry discriminators. Read big-endian from the first two bytes of
// a datagram.
const (
	CodeTelemetryV1          uint16 = 0x0101
	CodeTelemetryV2          uint16 = 0x0201
	CodeCompassCalibrationV2 uint16 = 0x0202
)

// Reply discriminators (single byte, printable by convention).
const (
	CodeReplyAckV2              uint16 = 'a'
	CodeReplyPingV2             uint16 = 'P'
	CodeReplyCameraParametersV2 uint16 = 'v'
)

// Command discriminators (single byte, printable by convention).
const (
	CodeCmdWatchdogV1            uint16 = 'w'
	CodeCmdSetSystemTimeV2       uint16 = 't'
	CodeCmdUserGeoLocationV1     uint16 = 'g'
	CodeCmdPingV2                uint16 = 'p'
	CodeCmdGetCameraParametersV2 uint16 = 'c'
)

// Discriminator widths per channel, in bytes.
const (
	TelemetryCodeSize = 2
	ReplyCodeSize     = 1
)

// Scale factors for raw telemetry fields. The codec never applies these;
// consumers divide on the way to engineering units.
const (
	DepthScale       = 1000.0 // millimetres per metre
	AngleScale       = 100.0  // centidegrees per degree
	VoltageScale     = 1000.0 // millivolts per volt
	TemperatureScale = 10.0   // deci-degrees C per degree C
)

// MaxFrameSize is an upper bound on any registered frame, used by channel
// receive buffers.
const MaxFrameSize = 64
