// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"math"
	"time"
)

// Liveness and clock policy.
const (
	// WatchdogInterval is the cadence of the vehicle-side keep-alive,
	// driven by the coordinator's own ticker.
	WatchdogInterval = time.Second

	// HealthInterval is the cadence of the run loop's channel health
	// check and reconnect driver.
	HealthInterval = 500 * time.Millisecond

	// TimeSyncMinInterval throttles clock corrections.
	TimeSyncMinInterval = 5 * time.Second

	// ClockSkewToleranceMs is the skew beyond which the vehicle clock
	// is corrected.
	ClockSkewToleranceMs = 1100
)

// clockSkewExceeded compares the local clock against the vehicle's
// onboard clock (milliseconds since its epoch).
func clockSkewExceeded(local time.Time, vehicleMsec uint32) bool {
	skew := float64(local.UnixMilli()) - float64(vehicleMsec)
	return math.Abs(skew) > ClockSkewToleranceMs
}

// retryEligible reports whether a channel in state s is waiting for the
// run loop to drive a reconnect.
func retryEligible(s State) bool {
	return s == StateDisconnected || s == StateError
}
