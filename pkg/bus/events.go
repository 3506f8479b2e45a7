// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

// Package bus is the gateway's boundary to the vehicle-wide domain bus:
// a WebSocket endpoint carrying CBOR-encoded event envelopes. The
// gateway publishes decoded navigation data and raw-traffic blobs, and
// subscribes to position estimates and logging-session control.
package bus

// Event is any payload carried in a bus envelope.
type Event interface {
	Kind() string
}

// Depth is the vehicle depth in engineering units.
type Depth struct {
	Meters float64 `cbor:"1,keyasint"`
}

func (Depth) Kind() string { return "depth" }

// Orientation is the vehicle attitude in radians. Clock is the vehicle
// realtime clock in seconds when known, 0 otherwise.
type Orientation struct {
	Roll  float64 `cbor:"1,keyasint"`
	Pitch float64 `cbor:"2,keyasint"`
	Yaw   float64 `cbor:"3,keyasint"`
	Clock float64 `cbor:"4,keyasint,omitempty"`
}

func (Orientation) Kind() string { return "orientation" }

// Temperature is the water temperature in degrees Celsius.
type Temperature struct {
	Celsius float64 `cbor:"1,keyasint"`
}

func (Temperature) Kind() string { return "temperature" }

// NavState is the synthesized full navigation estimate derived from
// telemetry. Published only when the gateway is configured to generate
// it; in that mode external PositionEstimate events are not forwarded
// to the vehicle.
type NavState struct {
	Latitude  float64 `cbor:"1,keyasint"`
	Longitude float64 `cbor:"2,keyasint"`
	Depth     float64 `cbor:"3,keyasint"`
	Roll      float64 `cbor:"4,keyasint"`
	Pitch     float64 `cbor:"5,keyasint"`
	Yaw       float64 `cbor:"6,keyasint"`
}

func (NavState) Kind() string { return "navstate" }

// RawBlob mirrors one captured wire span on the bus.
type RawBlob struct {
	Stream string `cbor:"1,keyasint"` // telemetry, commands, replies
	Data   []byte `cbor:"2,keyasint"`
}

func (RawBlob) Kind() string { return "rawblob" }

// PositionEstimate is an externally supplied position fix, degrees plus
// a local-frame offset in metres.
type PositionEstimate struct {
	Latitude    float64 `cbor:"1,keyasint"`
	Longitude   float64 `cbor:"2,keyasint"`
	NorthOffset float64 `cbor:"3,keyasint,omitempty"`
	EastOffset  float64 `cbor:"4,keyasint,omitempty"`
	Roll        float64 `cbor:"5,keyasint,omitempty"`
	Pitch       float64 `cbor:"6,keyasint,omitempty"`
	Yaw         float64 `cbor:"7,keyasint,omitempty"`
}

func (PositionEstimate) Kind() string { return "estimate" }

// Logging-session operations.
const (
	LoggingStarted = "started"
	LoggingStopped = "stopped"
)

// LoggingControl starts or stops a raw-capture session. Name is the
// session directory name assigned by the logging supervisor.
type LoggingControl struct {
	Op   string `cbor:"1,keyasint"`
	Name string `cbor:"2,keyasint,omitempty"`
}

func (LoggingControl) Kind() string { return "logctl" }
