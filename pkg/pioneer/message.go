// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

// Message is any decoded frame, telemetry or reply. The tagged-variant
// dispatch is a type switch on the concrete message type; Code ties the
// value back to its wire discriminator.
type Message interface {
	Code() uint16
}

// Command is an outbound message the encoder knows how to serialize.
type Command interface {
	Message
	// appendWire appends the frame body (everything after the
	// discriminator byte) and reports range violations.
	appendWire(dst []byte) ([]byte, error)
}

// TelemetryV1 is the first-generation telemetry broadcast. All fields
// are raw wire values; see the scale constants for units.
type TelemetryV1 struct {
	Time           uint32 // onboard clock, milliseconds
	Depth          int32  // millimetres
	Roll           int16  // centidegrees
	Pitch          int16  // centidegrees
	Yaw            int16  // centidegrees
	BatteryVoltage uint16 // millivolts
	WaterTemp      int16  // deci-degrees C
}

func (TelemetryV1) Code() uint16 { return CodeTelemetryV1 }

// TelemetryV2 extends V1 with a realtime-clock field and camera tilt.
type TelemetryV2 struct {
	Time           uint32 // onboard clock, milliseconds
	RTClock        uint32 // realtime clock, seconds
	Depth          int32  // millimetres
	Roll           int16  // centidegrees
	Pitch          int16  // centidegrees
	Yaw            int16  // centidegrees
	BatteryVoltage uint16 // millivolts
	WaterTemp      int16  // deci-degrees C
	CameraTilt     int16  // centidegrees
}

func (TelemetryV2) Code() uint16 { return CodeTelemetryV2 }

// CompassCalibrationV2 reports calibration progress while the vehicle is
// in compass-calibration mode.
type CompassCalibrationV2 struct {
	ProgressThruster uint8 // percent
	ProgressCompass  uint8 // percent
	StatusFlags      uint8
}

func (CompassCalibrationV2) Code() uint16 { return CodeCompassCalibrationV2 }

// ReplyAckV2 acknowledges one command; the protocol carries no sequence
// numbers, so the only correlation hint is the echoed command
// discriminator.
type ReplyAckV2 struct {
	AckedCommand uint8
}

func (ReplyAckV2) Code() uint16 { return CodeReplyAckV2 }

// ReplyPingV2 answers a CmdPingV2. The frame is the bare discriminator.
type ReplyPingV2 struct{}

func (ReplyPingV2) Code() uint16 { return CodeReplyPingV2 }

// ReplyCameraParametersV2 answers CmdGetCameraParametersV2.
type ReplyCameraParametersV2 struct {
	Bitrate      int32 // bits per second
	Exposure     int32 // microseconds, -1 for auto
	WhiteBalance int32 // kelvin, -1 for auto
	Hue          int32
	Resolution   int32 // vertical lines
	Framerate    int32 // frames per second
}

func (ReplyCameraParametersV2) Code() uint16 { return CodeReplyCameraParametersV2 }

// CmdWatchdogV1 is the surface-side keep-alive. ConnectionDuration is
// the elapsed session time in seconds.
type CmdWatchdogV1 struct {
	ConnectionDuration int16
}

func (CmdWatchdogV1) Code() uint16 { return CodeCmdWatchdogV1 }

// CmdSetSystemTimeV2 sets the vehicle realtime clock.
type CmdSetSystemTimeV2 struct {
	UnixTimestamp int32
}

func (CmdSetSystemTimeV2) Code() uint16 { return CodeCmdSetSystemTimeV2 }

// CmdUserGeoLocationV1 tells the vehicle where the surface unit is.
// Angles are plain degrees, not scaled integers.
type CmdUserGeoLocationV1 struct {
	Latitude  float64 // degrees, [-90, 90]
	Longitude float64 // degrees, [-180, 180]
}

func (CmdUserGeoLocationV1) Code() uint16 { return CodeCmdUserGeoLocationV1 }

// CmdPingV2 requests a ReplyPingV2.
type CmdPingV2 struct{}

func (CmdPingV2) Code() uint16 { return CodeCmdPingV2 }

// CmdGetCameraParametersV2 requests a ReplyCameraParametersV2.
type CmdGetCameraParametersV2 struct{}

func (CmdGetCameraParametersV2) Code() uint16 { return CodeCmdGetCameraParametersV2 }
