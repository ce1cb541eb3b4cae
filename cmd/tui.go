// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

const maxLogEntries = 100

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// Messages shared by the terminal UIs
type tickMsg time.Time

type sessionDoneMsg struct {
	err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// tuiStyles holds the lipgloss styles used by every view
type tuiStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	box     lipgloss.Style
	focused lipgloss.Style
}

func newStyles() tuiStyles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return tuiStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		err: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		box:     box,
		focused: box.BorderForeground(lipgloss.Color("12")),
	}
}

// appendEvent adds an entry and keeps only the last maxLogEntries
func appendEvent(log []eventLogEntry, message string, isError bool) []eventLogEntry {
	log = append(log, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(log) > maxLogEntries {
		log = log[len(log)-maxLogEntries:]
	}
	return log
}

// counterEvents describes what changed between two counter readings
func counterEvents(prev, cur unifylink.Counters) []eventLogEntry {
	var events []eventLogEntry
	now := time.Now()
	add := func(isError bool, format string, args ...any) {
		events = append(events, eventLogEntry{timestamp: now, message: fmt.Sprintf(format, args...), isError: isError})
	}

	if d := cur.ComErrors - prev.ComErrors; d > 0 {
		add(true, "Lost %d frame(s) (sequence gap)", d)
	}
	if d := cur.DecodeErrors - prev.DecodeErrors; d > 0 {
		add(true, "%d frame(s) not dispatched (no handler or length mismatch)", d)
	}
	if d := cur.RxDropped - prev.RxDropped; d > 0 {
		add(true, "Dropped %d byte(s), inbound buffer full", d)
	}
	if d := cur.TxRejected - prev.TxRejected; d > 0 {
		add(true, "%d frame(s) rejected, outbound buffer full", d)
	}
	if prev.Success == 0 && cur.Success > 0 {
		add(false, "First frame received")
	}
	return events
}

// renderEventLog renders the newest entries that fit in height lines
func renderEventLog(log []eventLogEntry, height, width int, st tuiStyles) string {
	if height < 5 {
		height = 5
	}

	var content strings.Builder
	start := len(log) - height
	if start < 0 {
		start = 0
	}

	if len(log) == 0 {
		content.WriteString(st.header.Render("  (no events yet)"))
	} else {
		for _, entry := range log[start:] {
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				content.WriteString(fmt.Sprintf("%s %s\n",
					st.header.Render(timestamp),
					st.err.Render("✗ "+entry.message),
				))
			} else {
				content.WriteString(fmt.Sprintf("%s %s\n",
					st.header.Render(timestamp),
					st.warning.Render("ℹ "+entry.message),
				))
			}
		}
	}

	return st.box.Width(width - 4).Render(content.String())
}

// formatDuration formats a duration as a human-friendly string
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}

	seconds := uint64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}
