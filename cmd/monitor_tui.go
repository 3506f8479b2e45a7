// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oceanops/pioneergw/pkg/pioneer"
)

// Event log entry
type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Latest decoded vehicle state, in engineering units
type vehicleState struct {
	timestamp   time.Time
	clockMsec   uint32
	rtcSec      uint32
	hasRTC      bool
	depth       float64
	roll        float64
	pitch       float64
	yaw         float64
	cameraTilt  float64
	hasCamTilt  bool
	batteryV    float64
	waterTemp   float64
	calThruster uint8
	calCompass  uint8
	calFlags    uint8
	calibrating bool
}

// TUI model
type monitorModel struct {
	listenPort    int
	spin          spinner.Model
	state         *vehicleState
	eventLog      []monitorLogEntry
	maxLogEntries int
	totalMsgs     int
	unparsedBytes int
	msgsThisTick  int
	msgRate       float64
	width         int
	height        int
	quitting      bool
}

// Messages
type monitorTickMsg time.Time
type monitorDataMsg struct {
	msg pioneer.Message
}
type monitorUnparsedMsg struct {
	count int
}
type monitorErrMsg struct {
	err error
}

func initialMonitorModel(listenPort int) monitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	return monitorModel{
		listenPort:    listenPort,
		spin:          sp,
		eventLog:      make([]monitorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTick(),
		m.spin.Tick,
		tea.EnterAltScreen,
	)
}

func monitorTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		m.msgRate = float64(m.msgsThisTick)
		m.msgsThisTick = 0
		return m, monitorTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case monitorDataMsg:
		m.totalMsgs++
		m.msgsThisTick++
		m.applyMessage(msg.msg)

	case monitorUnparsedMsg:
		m.unparsedBytes += msg.count
		m.addLogEntry(fmt.Sprintf("UNPARSED: %d bytes dropped", msg.count), true)

	case monitorErrMsg:
		m.addLogEntry(fmt.Sprintf("SOCKET ERROR: %v", msg.err), true)
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// applyMessage folds one decoded message into the displayed state.
func (m *monitorModel) applyMessage(msg pioneer.Message) {
	ensure := func() *vehicleState {
		if m.state == nil {
			m.state = &vehicleState{}
		}
		return m.state
	}

	switch t := msg.(type) {
	case pioneer.TelemetryV1:
		s := ensure()
		s.timestamp = time.Now()
		s.clockMsec = t.Time
		s.hasRTC = false
		s.depth = float64(t.Depth) / pioneer.DepthScale
		s.roll = float64(t.Roll) / pioneer.AngleScale
		s.pitch = float64(t.Pitch) / pioneer.AngleScale
		s.yaw = float64(t.Yaw) / pioneer.AngleScale
		s.hasCamTilt = false
		s.batteryV = float64(t.BatteryVoltage) / pioneer.VoltageScale
		s.waterTemp = float64(t.WaterTemp) / pioneer.TemperatureScale
		s.calibrating = false

	case pioneer.TelemetryV2:
		s := ensure()
		s.timestamp = time.Now()
		s.clockMsec = t.Time
		s.rtcSec = t.RTClock
		s.hasRTC = true
		s.depth = float64(t.Depth) / pioneer.DepthScale
		s.roll = float64(t.Roll) / pioneer.AngleScale
		s.pitch = float64(t.Pitch) / pioneer.AngleScale
		s.yaw = float64(t.Yaw) / pioneer.AngleScale
		s.cameraTilt = float64(t.CameraTilt) / pioneer.AngleScale
		s.hasCamTilt = true
		s.batteryV = float64(t.BatteryVoltage) / pioneer.VoltageScale
		s.waterTemp = float64(t.WaterTemp) / pioneer.TemperatureScale
		s.calibrating = false

	case pioneer.CompassCalibrationV2:
		s := ensure()
		s.timestamp = time.Now()
		wasCalibrating := s.calibrating
		s.calThruster = t.ProgressThruster
		s.calCompass = t.ProgressCompass
		s.calFlags = t.StatusFlags
		s.calibrating = true
		if !wasCalibrating {
			m.addLogEntry("Compass calibration started", false)
		}
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("PIONEERGW - TELEMETRY MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Listening: udp/%d | Press 'q' to quit", m.listenPort)))
	s.WriteString("\n\n")

	if m.state == nil {
		s.WriteString(m.spin.View())
		s.WriteString(warningStyle.Render(" Waiting for telemetry..."))
		s.WriteString("\n\n")
	} else {
		staleness := time.Since(m.state.timestamp)
		if staleness > 3*time.Second {
			s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Telemetry stale (%.0fs)", staleness.Seconds())))
		} else {
			s.WriteString(valueStyle.Render("✓ Receiving"))
		}
		s.WriteString("\n\n")

		vs := strings.Builder{}
		vs.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			labelStyle.Render("Depth:"), valueStyle.Render(fmt.Sprintf("%.3f m", m.state.depth)),
			labelStyle.Render("Battery:"), batteryRender(m.state.batteryV, valueStyle, warningStyle),
			labelStyle.Render("Water:"), valueStyle.Render(fmt.Sprintf("%.1f °C", m.state.waterTemp)),
		))
		vs.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			labelStyle.Render("Roll:"), valueStyle.Render(fmt.Sprintf("%+.2f°", m.state.roll)),
			labelStyle.Render("Pitch:"), valueStyle.Render(fmt.Sprintf("%+.2f°", m.state.pitch)),
			labelStyle.Render("Yaw:"), valueStyle.Render(fmt.Sprintf("%+.2f°", m.state.yaw)),
		))
		vs.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Clock:"), valueStyle.Render(fmt.Sprintf("%d ms", m.state.clockMsec)),
		))
		if m.state.hasRTC {
			vs.WriteString(fmt.Sprintf("   %s %s",
				labelStyle.Render("RTC:"), valueStyle.Render(time.Unix(int64(m.state.rtcSec), 0).UTC().Format("15:04:05")),
			))
		}
		if m.state.hasCamTilt {
			vs.WriteString(fmt.Sprintf("   %s %s",
				labelStyle.Render("Cam tilt:"), valueStyle.Render(fmt.Sprintf("%+.2f°", m.state.cameraTilt)),
			))
		}
		s.WriteString(boxStyle.Render(vs.String()))
		s.WriteString("\n\n")

		if m.state.calibrating {
			cal := fmt.Sprintf("%s %s   %s %s   %s 0x%02X",
				labelStyle.Render("Thruster:"), warningStyle.Render(fmt.Sprintf("%d%%", m.state.calThruster)),
				labelStyle.Render("Compass:"), warningStyle.Render(fmt.Sprintf("%d%%", m.state.calCompass)),
				labelStyle.Render("Flags:"), m.state.calFlags,
			)
			s.WriteString(labelStyle.Render("Compass Calibration:"))
			s.WriteString("\n")
			s.WriteString(boxStyle.Render(cal))
			s.WriteString("\n\n")
		}
	}

	// Statistics
	stats := fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Messages:"), valueStyle.Render(fmt.Sprintf("%d", m.totalMsgs)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.0f msg/s", m.msgRate)),
		labelStyle.Render("Unparsed:"), func() string {
			if m.unparsedBytes > 0 {
				return errorStyle.Render(fmt.Sprintf("%d bytes", m.unparsedBytes))
			}
			return valueStyle.Render("0 bytes")
		}(),
	)
	s.WriteString(boxStyle.Render(stats))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 16
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func batteryRender(volts float64, ok, low lipgloss.Style) string {
	text := fmt.Sprintf("%.2f V", volts)
	if volts > 0 && volts < 13.0 {
		return low.Render(text)
	}
	return ok.Render(text)
}
