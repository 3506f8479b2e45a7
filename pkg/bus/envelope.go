// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package bus

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// envelope is the wire form of one bus event: kind tag, publish time in
// Unix milliseconds, CBOR-encoded payload.
type envelope struct {
	Kind string          `cbor:"k"`
	At   int64           `cbor:"t"`
	Data cbor.RawMessage `cbor:"d"`
}

// marshalEvent wraps ev in an envelope and encodes it.
func marshalEvent(ev Event, at time.Time) ([]byte, error) {
	data, err := cbor.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Kind(), err)
	}
	return cbor.Marshal(envelope{
		Kind: ev.Kind(),
		At:   at.UnixMilli(),
		Data: data,
	})
}

// unmarshalEvent decodes an envelope and its payload. Unknown kinds are
// reported so the read loop can skip them without failing.
func unmarshalEvent(raw []byte) (Event, error) {
	var env envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Event
	switch env.Kind {
	case Depth{}.Kind():
		ev = new(Depth)
	case Orientation{}.Kind():
		ev = new(Orientation)
	case Temperature{}.Kind():
		ev = new(Temperature)
	case NavState{}.Kind():
		ev = new(NavState)
	case RawBlob{}.Kind():
		ev = new(RawBlob)
	case PositionEstimate{}.Kind():
		ev = new(PositionEstimate)
	case LoggingControl{}.Kind():
		ev = new(LoggingControl)
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}

	if err := cbor.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return deref(ev), nil
}

// deref returns the value form so consumers can type-switch on the
// event structs directly.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *Depth:
		return *e
	case *Orientation:
		return *e
	case *Temperature:
		return *e
	case *NavState:
		return *e
	case *RawBlob:
		return *e
	case *PositionEstimate:
		return *e
	case *LoggingControl:
		return *e
	default:
		return ev
	}
}
