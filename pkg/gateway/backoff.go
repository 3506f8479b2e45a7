// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes reconnect delays for the run loop.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultBackoff matches the reconnect cadence used for lost links:
// 1 s doubling up to 30 s, jittered so two channels do not retry in
// lockstep.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     true,
	}
}

// Delay returns the wait before retry attempt (1-based).
func (b Backoff) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || b.Initial <= 0 {
		return b.Initial
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(b.Initial) * math.Pow(mult, float64(attempt-1))
	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}
