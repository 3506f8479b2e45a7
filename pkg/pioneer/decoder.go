// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

import "encoding/binary"

// Frame sizes, discriminator included. Registered shapes are fixed
// layout, so the size doubles as the minimum decodable length.
const (
	telemetryV1Size          = TelemetryCodeSize + 18
	telemetryV2Size          = TelemetryCodeSize + 24
	compassCalibrationV2Size = TelemetryCodeSize + 3

	replyAckV2Size              = ReplyCodeSize + 1
	replyPingV2Size             = ReplyCodeSize
	replyCameraParametersV2Size = ReplyCodeSize + 24
)

// Decode reads one frame from buf[offset:length] using reg.
//
// It returns the decoded message and the number of bytes the frame
// occupied. A zero count means "do not advance": either the
// discriminator is not registered (caller resyncs, typically by skipping
// one byte) or the buffer holds only a prefix of the frame (caller waits
// for more bytes). Decode never fails on a complete frame; implausible
// field values are surfaced as-is and range policing is left to the
// consumer.
func Decode(buf []byte, offset, length int, reg *Registry) (Message, int) {
	code, ok := reg.CodeAt(buf, offset, length)
	if !ok {
		return nil, 0
	}
	shape, ok := reg.Lookup(code)
	if !ok {
		return nil, 0
	}
	if length-offset < shape.Size {
		// Partial frame, not an error.
		return nil, 0
	}
	return shape.Decode(buf[offset : offset+shape.Size]), shape.Size
}

// Field decoders. Each receives exactly Shape.Size bytes starting at the
// discriminator; multi-byte fields are little-endian.

func decodeTelemetryV1(frame []byte) Message {
	f := frame[TelemetryCodeSize:]
	return TelemetryV1{
		Time:           binary.LittleEndian.Uint32(f[0:]),
		Depth:          int32(binary.LittleEndian.Uint32(f[4:])),
		Roll:           int16(binary.LittleEndian.Uint16(f[8:])),
		Pitch:          int16(binary.LittleEndian.Uint16(f[10:])),
		Yaw:            int16(binary.LittleEndian.Uint16(f[12:])),
		BatteryVoltage: binary.LittleEndian.Uint16(f[14:]),
		WaterTemp:      int16(binary.LittleEndian.Uint16(f[16:])),
	}
}

func decodeTelemetryV2(frame []byte) Message {
	f := frame[TelemetryCodeSize:]
	return TelemetryV2{
		Time:           binary.LittleEndian.Uint32(f[0:]),
		RTClock:        binary.LittleEndian.Uint32(f[4:]),
		Depth:          int32(binary.LittleEndian.Uint32(f[8:])),
		Roll:           int16(binary.LittleEndian.Uint16(f[12:])),
		Pitch:          int16(binary.LittleEndian.Uint16(f[14:])),
		Yaw:            int16(binary.LittleEndian.Uint16(f[16:])),
		BatteryVoltage: binary.LittleEndian.Uint16(f[18:]),
		WaterTemp:      int16(binary.LittleEndian.Uint16(f[20:])),
		CameraTilt:     int16(binary.LittleEndian.Uint16(f[22:])),
	}
}

func decodeCompassCalibrationV2(frame []byte) Message {
	f := frame[TelemetryCodeSize:]
	return CompassCalibrationV2{
		ProgressThruster: f[0],
		ProgressCompass:  f[1],
		StatusFlags:      f[2],
	}
}

func decodeReplyAckV2(frame []byte) Message {
	return ReplyAckV2{AckedCommand: frame[ReplyCodeSize]}
}

func decodeReplyPingV2(frame []byte) Message {
	return ReplyPingV2{}
}

func decodeReplyCameraParametersV2(frame []byte) Message {
	f := frame[ReplyCodeSize:]
	return ReplyCameraParametersV2{
		Bitrate:      int32(binary.LittleEndian.Uint32(f[0:])),
		Exposure:     int32(binary.LittleEndian.Uint32(f[4:])),
		WhiteBalance: int32(binary.LittleEndian.Uint32(f[8:])),
		Hue:          int32(binary.LittleEndian.Uint32(f[12:])),
		Resolution:   int32(binary.LittleEndian.Uint32(f[16:])),
		Framerate:    int32(binary.LittleEndian.Uint32(f[20:])),
	}
}
