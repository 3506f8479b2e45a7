// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics
//
// Pioneergw - Pioneer underwater vehicle gateway
//
// Bridges a Pioneer vehicle's binary protocol (TCP commands, UDP
// telemetry) to the vessel's domain bus, with raw-traffic capture and
// live monitoring tools.

package main

import (
	"os"

	"github.com/oceanops/pioneergw/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
