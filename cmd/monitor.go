// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"fmt"
	"net"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/oceanops/pioneergw/pkg/pioneer"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for live vehicle telemetry",
	Long: `Monitor vehicle telemetry in an interactive terminal UI.

Listens on the telemetry UDP port and shows the latest depth, attitude,
battery, and water temperature along with message statistics and an
event log. Compass calibration progress is shown while a calibration is
running.

Run this alongside the gateway only on a different port, or instead of
it; two listeners cannot share the telemetry socket.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.Telemetry.ListenPort})
	if err != nil {
		return fmt.Errorf("listen udp :%d: %w", cfg.Telemetry.ListenPort, err)
	}

	m := initialMonitorModel(cfg.Telemetry.ListenPort)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Reader goroutine feeds decoded messages into the TUI.
	done := make(chan struct{})
	go monitorReaderLoop(p, conn, done)

	_, runErr := p.Run()
	close(done)
	conn.Close()
	if runErr != nil {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return nil
}

func monitorReaderLoop(p *tea.Program, conn *net.UDPConn, done chan struct{}) {
	reg := pioneer.TelemetryRegistry()
	buf := make([]byte, 2048)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-done:
			default:
				p.Send(monitorErrMsg{err: err})
			}
			return
		}

		offset := 0
		for offset < n {
			msg, consumed := pioneer.Decode(buf, offset, n, reg)
			if consumed == 0 {
				p.Send(monitorUnparsedMsg{count: n - offset})
				break
			}
			p.Send(monitorDataMsg{msg: msg})
			offset += consumed
		}
	}
}
