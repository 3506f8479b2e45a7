// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodingError reports a field whose value does not fit its wire slot.
type EncodingError struct {
	Shape string
	Field string
	Value interface{}
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("pioneer: cannot encode %s.%s: %v out of range", e.Shape, e.Field, e.Value)
}

// Encode serializes a command into its wire frame: the one-byte
// discriminator followed by the fields in fixed order, little-endian.
func Encode(cmd Command) ([]byte, error) {
	dst := make([]byte, 1, MaxFrameSize)
	dst[0] = byte(cmd.Code())
	return cmd.appendWire(dst)
}

func (c CmdWatchdogV1) appendWire(dst []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint16(dst, uint16(c.ConnectionDuration)), nil
}

func (c CmdSetSystemTimeV2) appendWire(dst []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(dst, uint32(c.UnixTimestamp)), nil
}

func (c CmdUserGeoLocationV1) appendWire(dst []byte) ([]byte, error) {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return nil, &EncodingError{Shape: "CmdUserGeoLocationV1", Field: "Latitude", Value: c.Latitude}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return nil, &EncodingError{Shape: "CmdUserGeoLocationV1", Field: "Longitude", Value: c.Longitude}
	}
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(c.Latitude))
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(c.Longitude))
	return dst, nil
}

func (CmdPingV2) appendWire(dst []byte) ([]byte, error) {
	return dst, nil
}

func (CmdGetCameraParametersV2) appendWire(dst []byte) ([]byte, error) {
	return dst, nil
}
