// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

import (
	"fmt"
	"strings"
	"time"
)

// FormatMessage renders a decoded message as one or more human-readable
// lines, scaled to engineering units. Used by the rawlog and monitor
// commands.
func FormatMessage(at time.Time, m Message) string {
	ts := at.Format("15:04:05.000")
	var b strings.Builder

	switch msg := m.(type) {
	case TelemetryV1:
		fmt.Fprintf(&b, "[%s] TELEMETRY_V1\n", ts)
		fmt.Fprintf(&b, "  Clock: %d ms  Depth: %.3f m\n", msg.Time, float64(msg.Depth)/DepthScale)
		fmt.Fprintf(&b, "  Roll: %.2f°  Pitch: %.2f°  Yaw: %.2f°\n",
			float64(msg.Roll)/AngleScale, float64(msg.Pitch)/AngleScale, float64(msg.Yaw)/AngleScale)
		fmt.Fprintf(&b, "  Battery: %.3f V  Water: %.1f °C\n",
			float64(msg.BatteryVoltage)/VoltageScale, float64(msg.WaterTemp)/TemperatureScale)

	case TelemetryV2:
		fmt.Fprintf(&b, "[%s] TELEMETRY_V2\n", ts)
		fmt.Fprintf(&b, "  Clock: %d ms  RTC: %d s  Depth: %.3f m\n",
			msg.Time, msg.RTClock, float64(msg.Depth)/DepthScale)
		fmt.Fprintf(&b, "  Roll: %.2f°  Pitch: %.2f°  Yaw: %.2f°  Cam tilt: %.2f°\n",
			float64(msg.Roll)/AngleScale, float64(msg.Pitch)/AngleScale,
			float64(msg.Yaw)/AngleScale, float64(msg.CameraTilt)/AngleScale)
		fmt.Fprintf(&b, "  Battery: %.3f V  Water: %.1f °C\n",
			float64(msg.BatteryVoltage)/VoltageScale, float64(msg.WaterTemp)/TemperatureScale)

	case CompassCalibrationV2:
		fmt.Fprintf(&b, "[%s] COMPASS_CALIBRATION_V2\n", ts)
		fmt.Fprintf(&b, "  Thruster: %d%%  Compass: %d%%  Flags: 0x%02X\n",
			msg.ProgressThruster, msg.ProgressCompass, msg.StatusFlags)

	case ReplyAckV2:
		fmt.Fprintf(&b, "[%s] REPLY_ACK_V2\n", ts)
		fmt.Fprintf(&b, "  Acked command: %q\n", msg.AckedCommand)

	case ReplyPingV2:
		fmt.Fprintf(&b, "[%s] REPLY_PING_V2\n", ts)

	case ReplyCameraParametersV2:
		fmt.Fprintf(&b, "[%s] REPLY_CAMERA_PARAMETERS_V2\n", ts)
		fmt.Fprintf(&b, "  Bitrate: %d bps  Exposure: %d  WB: %d  Hue: %d\n",
			msg.Bitrate, msg.Exposure, msg.WhiteBalance, msg.Hue)
		fmt.Fprintf(&b, "  Resolution: %dp  Framerate: %d fps\n", msg.Resolution, msg.Framerate)

	default:
		fmt.Fprintf(&b, "[%s] UNKNOWN (0x%04X)\n", ts, m.Code())
	}

	return b.String()
}

// FormatRawSpan hex-dumps bytes that failed to decode, sixteen per line.
func FormatRawSpan(buf []byte) string {
	var b strings.Builder
	b.WriteString("  Raw: ")
	for i, c := range buf {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n       ")
		}
		fmt.Fprintf(&b, "%02X ", c)
	}
	b.WriteString("\n")
	return b.String()
}
