// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"math/rand"
	"testing"
	"time"
)

func TestBackoff_Grows(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: 30 * time.Second, Multiplier: 2}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{20, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := b.Delay(tc.attempt, nil); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoff_JitterStaysInBand(t *testing.T) {
	b := DefaultBackoff()
	rng := rand.New(rand.NewSource(1))

	for attempt := 2; attempt <= 8; attempt++ {
		base := Backoff{Initial: b.Initial, Max: b.Max, Multiplier: b.Multiplier}.Delay(attempt, nil)
		for i := 0; i < 100; i++ {
			d := b.Delay(attempt, rng)
			if d < base/2 || d > base*3/2 {
				t.Fatalf("Delay(%d) = %v outside [%v, %v]", attempt, d, base/2, base*3/2)
			}
		}
	}
}

func TestBackoff_FirstAttemptIsInitial(t *testing.T) {
	b := DefaultBackoff()
	if got := b.Delay(1, rand.New(rand.NewSource(1))); got != b.Initial {
		t.Errorf("Delay(1) = %v, want %v", got, b.Initial)
	}
	if got := b.Delay(0, nil); got != b.Initial {
		t.Errorf("Delay(0) = %v, want %v", got, b.Initial)
	}
}
