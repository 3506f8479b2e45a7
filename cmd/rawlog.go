// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oceanops/pioneergw/pkg/pioneer"
)

var (
	rawlogFile   string
	rawlogStream string
)

var rawlogCmd = &cobra.Command{
	Use:   "rawlog",
	Short: "Display vehicle traffic in human-readable form",
	Long: `Continuously decode and display vehicle messages as they arrive.

By default this listens on the telemetry UDP port and prints each
message with timestamp, type, and decoded payload in engineering units.

With --file it decodes a capture file produced by the gateway instead;
--stream selects the registry (telemetry for telemetry.bin, replies for
replies.bin).`,
	RunE: runRawlog,
}

func init() {
	rawlogCmd.Flags().StringVar(&rawlogFile, "file", "", "Decode a capture file instead of listening")
	rawlogCmd.Flags().StringVar(&rawlogStream, "stream", "telemetry", "Registry for --file: telemetry or replies")
	rootCmd.AddCommand(rawlogCmd)
}

func runRawlog(cmd *cobra.Command, args []string) error {
	if rawlogFile != "" {
		return decodeCaptureFile(rawlogFile, rawlogStream)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.Telemetry.ListenPort})
	if err != nil {
		return fmt.Errorf("listen udp :%d: %w", cfg.Telemetry.ListenPort, err)
	}
	defer conn.Close()

	fmt.Printf("Pioneergw - Raw Telemetry Log\n")
	fmt.Printf("Listening: udp/%d\n", cfg.Telemetry.ListenPort)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reg := pioneer.TelemetryRegistry()
	buf := make([]byte, 2048)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		printFrames(reg, buf[:n])
	}
}

func decodeCaptureFile(path, stream string) error {
	var reg *pioneer.Registry
	switch stream {
	case "telemetry":
		reg = pioneer.TelemetryRegistry()
	case "replies":
		reg = pioneer.ReplyRegistry()
	default:
		return fmt.Errorf("unknown stream %q (use telemetry or replies)", stream)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	offset := 0
	for offset < len(data) {
		msg, n := pioneer.Decode(data, offset, len(data), reg)
		if n == 0 {
			// Unknown discriminator or truncated tail; show the
			// remainder as hex and resynchronize byte by byte.
			fmt.Printf("[RESYNC] %s\n", pioneer.FormatRawSpan(data[offset:min(offset+16, len(data))]))
			offset++
			continue
		}
		fmt.Print(pioneer.FormatMessage(time.Time{}, msg))
		offset += n
	}
	return nil
}

func printFrames(reg *pioneer.Registry, data []byte) {
	offset := 0
	for offset < len(data) {
		msg, n := pioneer.Decode(data, offset, len(data), reg)
		if n == 0 {
			fmt.Printf("[UNPARSED] %s\n", pioneer.FormatRawSpan(data[offset:]))
			return
		}
		fmt.Print(pioneer.FormatMessage(time.Now(), msg))
		offset += n
	}
}
