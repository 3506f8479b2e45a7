// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package pioneer

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// TestFuzz_DecodeRandomBytes feeds random buffers through both
// registries. Decode must never panic, never consume more than the
// buffer holds, and only ever consume a registered frame size.
func TestFuzz_DecodeRandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	registries := []*Registry{TelemetryRegistry(), ReplyRegistry()}

	for round := 0; round < rounds; round++ {
		buf := make([]byte, rng.Intn(2*MaxFrameSize))
		rng.Read(buf)

		for _, reg := range registries {
			offset := rng.Intn(len(buf) + 1)
			msg, n := Decode(buf, offset, len(buf), reg)

			if n < 0 || n > len(buf)-offset {
				t.Fatalf("round %d: consumed %d of %d available", round, n, len(buf)-offset)
			}
			if n == 0 && msg != nil {
				t.Fatalf("round %d: zero consumed but message %+v returned", round, msg)
			}
			if n > 0 {
				code, _ := reg.CodeAt(buf, offset, len(buf))
				shape, ok := reg.Lookup(code)
				if !ok || n != shape.Size {
					t.Fatalf("round %d: consumed %d for code 0x%04X", round, n, code)
				}
			}
		}
	}
}

// TestFuzz_ResyncAlwaysRecovers buries a valid frame under random noise
// and checks the drop-one-byte recovery loop always finds it.
func TestFuzz_ResyncAlwaysRecovers(t *testing.T) {
	rng := newFuzzRng(t)
	reg := TelemetryRegistry()

	for round := 0; round < getFuzzRounds(); round++ {
		want := TelemetryV2{
			Time:  rng.Uint32(),
			Depth: int32(rng.Uint32()),
			Yaw:   int16(rng.Uint32()),
		}
		noise := make([]byte, rng.Intn(16))
		rng.Read(noise)
		for i, b := range noise {
			// Registered telemetry codes start 0x01/0x02; keep the
			// noise free of them so the embedded frame is the only
			// decodable one.
			if b == 0x01 || b == 0x02 {
				noise[i] = 0xAA
			}
		}
		buf := append(noise, buildTelemetryV2(want)...)

		offset := 0
		found := false
		for offset < len(buf) {
			msg, n := Decode(buf, offset, len(buf), reg)
			if n == 0 {
				offset++
				continue
			}
			offset += n
			if msg == Message(want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("round %d: frame never recovered from noise % X", round, noise)
		}
	}
}
