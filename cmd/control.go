// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/component"
	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving motors",
	Long: `Drive the motors of a Unify Link device via an interactive terminal UI.

Features:
  - Motor list with model names from the motor info record
  - Live motor feedback (periodic pull of the feedback record)
  - Current setpoints
  - Statistics tracking
  - Event logging
  - Automatic reconnection on connection loss

Tab switches between the motor list, the setpoint input and the apply
button. 'x' zeroes every setpoint.

Supports both serial and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// connectionManager runs sessions and reconnects when one drops
type connectionManager struct {
	host *hostLink
	p    *tea.Program
}

func runControl(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	host, err := newHostLink()
	if err != nil {
		conn.Close()
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cm := &connectionManager{host: host}
	p := tea.NewProgram(newControlModel(host, connInfo), tea.WithAltScreen(), tea.WithContext(ctx))
	cm.p = p

	host.motors.OnInfo(func(info component.MotorInfo) {
		p.Send(motorInfoMsg(info))
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cm.run(ctx, conn)
	}()

	// Ask for the motor descriptions right away
	if err := host.request(unifylink.ComponentMotors, component.MotorInfoID); err != nil {
		logger.Debug().Err(err).Msg("initial info request failed")
	}

	_, err = p.Run()
	cancel()
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// run drives sessions until ctx ends
func (cm *connectionManager) run(ctx context.Context, conn Connection) {
	for {
		session := newSession(cm.host.link, conn)
		session.Logger = zerolog.Nop()

		err := runSession(ctx, session, conn)
		if ctx.Err() != nil {
			return
		}
		cm.p.Send(connectionLostMsg{err: err})

		var connInfo string
		var ok bool
		conn, connInfo, ok = cm.reconnect(ctx)
		if !ok {
			return
		}
		cm.p.Send(reconnectedMsg{connInfo: connInfo})
	}
}

// reconnect attempts to reconnect with exponential backoff.
// Returns false if ctx ended during reconnection.
func (cm *connectionManager) reconnect(ctx context.Context) (Connection, string, bool) {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil, "", false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			cm.host.request(unifylink.ComponentMotors, component.MotorInfoID)
			return conn, connInfo, true
		}

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
