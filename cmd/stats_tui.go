// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/unifylink/pkg/component"
	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// statsModel is the Bubble Tea model for the stats command
type statsModel struct {
	connInfo string
	host     *hostLink

	stats    *unifylink.Statistics
	last     unifylink.Counters
	started  time.Time
	eventLog []eventLogEntry

	addrTable  table.Model
	motorTable table.Model

	width       int
	height      int
	quitting    bool
	sessionDone bool
	styles      tuiStyles
}

func newStatsModel(connInfo string, host *hostLink) statsModel {
	addrTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Component", Width: 10},
			{Title: "Data", Width: 6},
			{Title: "RX", Width: 8},
			{Title: "TX", Width: 8},
			{Title: "Bytes", Width: 10},
			{Title: "Last Seen", Width: 12},
		}),
		table.WithHeight(8),
	)

	motorTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Motor", Width: 6},
			{Title: "Position", Width: 9},
			{Title: "Speed", Width: 7},
			{Title: "Current", Width: 8},
			{Title: "Temp", Width: 6},
			{Title: "Error", Width: 12},
		}),
		table.WithHeight(component.MaxMotors),
	)

	// Read-only tables, no row highlight
	ts := table.DefaultStyles()
	ts.Selected = lipgloss.NewStyle()
	addrTable.SetStyles(ts)
	motorTable.SetStyles(ts)

	return statsModel{
		connInfo:   connInfo,
		host:       host,
		stats:      unifylink.NewStatistics(),
		started:    time.Now(),
		addrTable:  addrTable,
		motorTable: motorTable,
		width:      80,
		height:     24,
		styles:     newStyles(),
	}
}

func (m statsModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.eventLog = appendEvent(m.eventLog, "Statistics reset", false)
		case "p":
			if err := m.host.request(unifylink.ComponentMotors, component.MotorBasicID); err != nil {
				m.eventLog = appendEvent(m.eventLog, fmt.Sprintf("Pull failed: %v", err), true)
			} else {
				m.eventLog = appendEvent(m.eventLog, "Requested motor feedback", false)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case sessionDoneMsg:
		m.sessionDone = true
		if msg.err != nil {
			m.eventLog = appendEvent(m.eventLog, fmt.Sprintf("Session ended: %v", msg.err), true)
		} else {
			m.eventLog = appendEvent(m.eventLog, "Connection closed", true)
		}
	}

	return m, nil
}

// refresh pulls the latest counters and records from the link
func (m *statsModel) refresh() {
	cur := m.host.link.Counters()
	m.eventLog = append(m.eventLog, counterEvents(m.last, cur)...)
	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
	m.last = cur
	m.stats.Update(cur)
	m.stats.CalculateRates()

	snap := m.host.stream.Snapshot()
	rows := make([]table.Row, 0, len(snap.Addresses))
	for _, a := range snap.Addresses {
		rows = append(rows, table.Row{
			unifylink.ComponentName(a.Component),
			fmt.Sprintf("0x%02X", a.DataID),
			fmt.Sprintf("%d", a.RxFrames),
			fmt.Sprintf("%d", a.TxFrames),
			fmt.Sprintf("%d", a.RxBytes+a.TxBytes),
			a.LastSeen.Format("15:04:05.000"),
		})
	}
	m.addrTable.SetRows(rows)

	basics := m.host.motors.Basics()
	motorRows := make([]table.Row, 0, len(basics))
	for i, b := range basics {
		motorRows = append(motorRows, table.Row{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", b.Position),
			fmt.Sprintf("%d", b.Speed),
			fmt.Sprintf("%d", b.Current),
			fmt.Sprintf("%d°C", b.Temperature),
			b.ErrorCode.String(),
		})
	}
	m.motorTable.SetRows(motorRows)
}

func (m statsModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	st := m.styles

	// Header
	var s strings.Builder
	s.WriteString(st.title.Render("UNIFYLINK - LINK STATISTICS"))
	s.WriteString("\n")
	s.WriteString(st.header.Render(fmt.Sprintf("%s | Running for %s | r=reset p=pull motors q=quit",
		m.connInfo, formatDuration(time.Since(m.started)))))
	s.WriteString("\n\n")

	if m.sessionDone {
		s.WriteString(st.err.Render("✗ Disconnected"))
	} else if m.last.Success == 0 {
		s.WriteString(st.warning.Render("⏳ Waiting for frames..."))
	} else {
		s.WriteString(st.value.Render("✓ Receiving"))
	}
	s.WriteString("\n\n")

	// Statistics
	c := m.stats.Counters
	var successPercent float64
	if total := m.stats.Total(); total > 0 {
		successPercent = float64(c.Success) * 100.0 / float64(total)
	}
	errorValue := func(n uint64) string {
		if n > 0 {
			return st.err.Render(fmt.Sprintf("%d", n))
		}
		return st.value.Render("0")
	}

	var stats strings.Builder
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		st.label.Render("Valid:"), st.value.Render(fmt.Sprintf("%d", m.stats.Total())),
		st.label.Render("Dispatched:"), st.value.Render(fmt.Sprintf("%d (%.1f%%)", c.Success, successPercent)),
		st.label.Render("Sent:"), st.value.Render(fmt.Sprintf("%d", c.TxFrames)),
	))
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		st.label.Render("Lost:"), errorValue(c.ComErrors),
		st.label.Render("Decode Errors:"), errorValue(c.DecodeErrors),
		st.label.Render("Dropped Bytes:"), errorValue(c.RxDropped),
	))
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		st.label.Render("Frame Rate:"), st.value.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		st.label.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return st.err.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return st.value.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
		st.label.Render("Byte Rate:"), st.value.Render(fmt.Sprintf("%.0f B/s", m.stats.ByteRate)),
	))
	s.WriteString(st.box.Render(stats.String()))
	s.WriteString("\n\n")

	// Tables side by side
	addrPanel := st.label.Render("Addresses:") + "\n" + st.box.Render(m.addrTable.View())
	motorPanel := st.label.Render("Motors:") + "\n" + st.box.Render(m.motorTable.View())
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, addrPanel, " ", motorPanel))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(st.label.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(renderEventLog(m.eventLog, m.height-30, m.width, st))

	return s.String()
}
