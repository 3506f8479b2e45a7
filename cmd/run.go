// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oceanops/pioneergw/pkg/bus"
	"github.com/oceanops/pioneergw/pkg/gateway"
	"github.com/oceanops/pioneergw/pkg/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the vehicle gateway",
	Long: `Run the gateway daemon.

Connects the command channel (TCP or serial), listens for UDP telemetry,
keeps the vehicle alive with the watchdog, and republishes decoded
telemetry on the domain bus. Lost channels are reconnected with backoff.

Without --bus-url (or a [bus] config section) the gateway runs
standalone: telemetry is still decoded and captured, bus publishing is
discarded.`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Init("pioneergw", cfg.Log.Level)

	client, err := openBus(cfg.Bus, log)
	if err != nil {
		return err
	}
	var pub gateway.Publisher = bus.Discard{}
	if client != nil {
		pub = client
		defer client.Close()
	}

	coord := gateway.New(cfg, log, pub)
	if client != nil {
		client.Listen(coord)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("vehicle", coord.String()).Msg("gateway starting")
	err = coord.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("gateway stopped")
		return nil
	}
	return err
}
