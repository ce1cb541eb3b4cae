// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/unifylink/pkg/component"
	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const pullIntervalSeconds = 2 // Pull motor feedback every N seconds

// Focus states
const (
	focusMotorList = iota
	focusCurrentInput
	focusButton
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// motorItem is one motor slot in the list
type motorItem struct {
	id    uint8
	model string
	basic component.MotorBasic
}

// Implement list.Item interface
func (d motorItem) Title() string { return fmt.Sprintf("Motor %d", d.id) }
func (d motorItem) Description() string {
	if d.model == "" {
		return "no info"
	}
	return d.model
}
func (d motorItem) FilterValue() string { return strconv.Itoa(int(d.id)) }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	host     *hostLink
	connInfo string

	motors    []motorItem
	motorList list.Model

	stats    *unifylink.Statistics
	last     unifylink.Counters
	eventLog []eventLogEntry

	currentInput textinput.Model
	focusedField int

	width          int
	height         int
	quitting       bool
	connectionLost bool
	lastPull       time.Time
	styles         tuiStyles
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type motorInfoMsg component.MotorInfo

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func newControlModel(host *hostLink, connInfo string) controlModel {
	ti := textinput.New()
	ti.Placeholder = "0"
	ti.CharLimit = 6
	ti.Width = 10

	motors := make([]motorItem, component.MaxMotors)
	items := make([]list.Item, len(motors))
	for i := range motors {
		motors[i] = motorItem{id: uint8(i)}
		items[i] = motors[i]
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	motorList := list.New(items, delegate, 30, 10)
	motorList.Title = "Motors"
	motorList.SetShowStatusBar(false)
	motorList.SetShowHelp(false)
	motorList.SetFilteringEnabled(false)

	return controlModel{
		host:         host,
		connInfo:     connInfo,
		motors:       motors,
		motorList:    motorList,
		stats:        unifylink.NewStatistics(),
		currentInput: ti,
		focusedField: focusMotorList,
		width:        80,
		height:       24,
		styles:       newStyles(),
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tickCmd()
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case tickMsg:
		m.refresh()
		if !m.connectionLost && time.Since(m.lastPull) >= pullIntervalSeconds*time.Second {
			m.lastPull = time.Now()
			if err := m.host.request(unifylink.ComponentMotors, component.MotorBasicID); err != nil {
				m.addLogEntry(fmt.Sprintf("Feedback pull failed: %v", err), true)
			}
		}
		return m, tickCmd()

	case motorInfoMsg:
		if int(msg.MotorID) < len(m.motors) {
			info := component.MotorInfo(msg)
			m.motors[msg.MotorID].model = info.ModelName()
			m.updateMotorList()
			m.addLogEntry(fmt.Sprintf("Motor %d: %s (fw %d)", msg.MotorID, info.ModelName(), info.FirmwareVersion), false)
		}

	case connectionLostMsg:
		m.connectionLost = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)
		} else {
			m.addLogEntry("Connection lost - reconnecting...", true)
		}

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusCurrentInput {
		m.currentInput, cmd = m.currentInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.focusedField == focusMotorList {
		m.motorList, cmd = m.motorList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.cycleFocus(1)
		return m, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "enter":
		if m.focusedField != focusMotorList {
			m.sendSetpoint()
		}
		return m, nil

	case "x":
		if m.focusedField != focusCurrentInput {
			m.stopAll()
			return m, nil
		}
	}

	// Pass through to focused component
	var cmd tea.Cmd
	switch m.focusedField {
	case focusCurrentInput:
		m.currentInput, cmd = m.currentInput.Update(msg)
	case focusMotorList:
		m.motorList, cmd = m.motorList.Update(msg)
	}
	return m, cmd
}

func (m *controlModel) cycleFocus(delta int) {
	n := focusButton + 1
	m.focusedField = (m.focusedField + delta + n) % n

	if m.focusedField == focusCurrentInput {
		m.currentInput.Focus()
	} else {
		m.currentInput.Blur()
	}
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	st := m.styles

	var s strings.Builder

	// Header
	s.WriteString(st.title.Render("UNIFYLINK CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = st.warning.Render("RECONNECTING...")
	}
	s.WriteString(st.header.Render(fmt.Sprintf("| %s | q=quit Tab=switch x=stop all", connStatus)))
	s.WriteString("\n\n")

	// Layout: left panel (motors) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := st.box.Width(leftWidth)
	if m.focusedField == focusMotorList {
		listStyle = st.focused.Width(leftWidth)
	}
	motorPanel := listStyle.Render(m.motorList.View())
	controlPanel := st.box.Width(rightWidth).Render(m.renderControlPanel())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, motorPanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n\n")

	s.WriteString(st.label.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(renderEventLog(m.eventLog, m.height-30, m.width, st))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderControlPanel() string {
	st := m.styles
	var s strings.Builder

	selected := m.selectedMotor()
	if selected == nil {
		s.WriteString(st.header.Render("No motor selected"))
		return s.String()
	}

	b := selected.basic
	s.WriteString(fmt.Sprintf("%s Motor %d %s\n", st.label.Render("Selected:"), selected.id, st.header.Render(selected.Description())))
	s.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		st.label.Render("Position:"), st.value.Render(fmt.Sprintf("%d", b.Position)),
		st.label.Render("Speed:"), st.value.Render(fmt.Sprintf("%d", b.Speed)),
		st.label.Render("Current:"), st.value.Render(fmt.Sprintf("%d", b.Current)),
	))

	errStyle := st.value
	if b.ErrorCode != component.MotorOK {
		errStyle = st.err
	}
	s.WriteString(fmt.Sprintf("%s %s  %s %s\n\n",
		st.label.Render("Temperature:"), st.value.Render(fmt.Sprintf("%d°C", b.Temperature)),
		st.label.Render("Error:"), errStyle.Render(b.ErrorCode.String()),
	))

	set := m.host.motors.Setpoints()[selected.id]
	s.WriteString(fmt.Sprintf("%s %s\n", st.label.Render("Setpoint:"), st.value.Render(fmt.Sprintf("%d", set.Set))))

	s.WriteString(st.label.Render("New setpoint: "))
	if m.focusedField == focusCurrentInput {
		s.WriteString(m.currentInput.View())
	} else {
		val := m.currentInput.Value()
		if val == "" {
			val = m.currentInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)
	if m.focusedField == focusButton {
		buttonStyle = buttonStyle.Background(lipgloss.Color("10"))
	}
	s.WriteString(buttonStyle.Render("[ Apply ]"))

	return s.String()
}

func (m controlModel) renderStatisticsBar() string {
	st := m.styles
	c := m.stats.Counters

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		st.label.Render("Frames:"), st.value.Render(fmt.Sprintf("%d", c.Success)),
		st.label.Render("Lost:"), func() string {
			if c.ComErrors > 0 {
				return st.err.Render(fmt.Sprintf("%d", c.ComErrors))
			}
			return st.value.Render("0")
		}(),
		st.label.Render("Sent:"), st.value.Render(fmt.Sprintf("%d", c.TxFrames)),
		st.label.Render("Rate:"), st.value.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)

	return st.box.Width(m.width - 4).Render(content)
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *controlModel) sendSetpoint() {
	if m.connectionLost {
		m.addLogEntry("Cannot send setpoint: connection lost", true)
		return
	}

	selected := m.selectedMotor()
	if selected == nil {
		return
	}

	value := m.currentInput.Value()
	if value == "" {
		value = m.currentInput.Placeholder
	}
	current, err := strconv.ParseInt(value, 10, 16)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid setpoint: %s", value), true)
		return
	}

	m.host.motors.SetCurrent(selected.id, int16(current))
	if !m.sendSetpoints() {
		return
	}
	m.addLogEntry(fmt.Sprintf("Set motor %d current to %d", selected.id, current), false)
}

func (m *controlModel) stopAll() {
	for id := range uint8(component.MaxMotors) {
		m.host.motors.SetCurrent(id, 0)
	}
	if m.sendSetpoints() {
		m.addLogEntry("All setpoints zeroed", false)
	}
}

func (m *controlModel) sendSetpoints() bool {
	if err := m.host.motors.SendSetpoints(); err != nil {
		m.addLogEntry(fmt.Sprintf("Failed to send setpoints: %v", err), true)
		return false
	}
	set := m.host.motors.Setpoints()
	m.host.stream.AddTx(unifylink.ComponentMotors, component.MotorSetCurrentID, unifylink.HeaderSize+binary.Size(&set))
	return true
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

// refresh pulls counters and motor feedback from the link
func (m *controlModel) refresh() {
	cur := m.host.link.Counters()
	for _, e := range counterEvents(m.last, cur) {
		m.eventLog = appendEvent(m.eventLog, e.message, e.isError)
	}
	m.last = cur
	m.stats.Update(cur)
	m.stats.CalculateRates()

	basics := m.host.motors.Basics()
	for i := range m.motors {
		m.motors[i].basic = basics[i]
	}
	m.updateMotorList()
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = appendEvent(m.eventLog, message, isError)
}

func (m *controlModel) selectedMotor() *motorItem {
	idx := m.motorList.Index()
	if idx < 0 || idx >= len(m.motors) {
		return nil
	}
	return &m.motors[idx]
}

func (m *controlModel) updateMotorList() {
	items := make([]list.Item, len(m.motors))
	for i, d := range m.motors {
		items[i] = d
	}
	m.motorList.SetItems(items)
}

func (m *controlModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.motorList.SetSize(28, listHeight)
}
