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

var (
	statsInterval int
	useTUI        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live link statistics",
	Long: `Track link health with live statistics.

The link registers the motor, encoder and firmware update records, so frames
for those addresses count as dispatched. Everything else that passes its CRC
check counts as a decode error. Sequence id gaps are counted as lost frames.

Displayed:
  - Dispatched frames, decode errors and lost frames
  - Frame, error and byte rates
  - Per-address traffic
  - Latest motor feedback

In the terminal UI, press 'r' to reset the statistics window and 'p' to pull
the motor feedback record from the peer. Use --tui=false for periodic text
summaries instead.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds, text mode)")
	statsCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
	statsCmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
}

// hostLink is a link with the device collaborators registered.
type hostLink struct {
	link     *unifylink.Link
	stream   *unifylink.StreamStats
	motors   *component.Motors
	encoders *component.Encoders
	update   *component.Update
}

// newHostLink creates the link and registers the collaborators. Frames are
// counted per address before obs sees them.
func newHostLink(obs ...unifylink.FrameObserver) (*hostLink, error) {
	h := &hostLink{stream: unifylink.NewStreamStats()}
	h.link = newLink(unifylink.WithObserver(func(f unifylink.Frame) {
		h.stream.AddRx(f)
		for _, fn := range obs {
			fn(f)
		}
	}))

	var err error
	if h.motors, err = component.NewMotors(h.link); err != nil {
		return nil, err
	}
	if h.encoders, err = component.NewEncoders(h.link); err != nil {
		return nil, err
	}
	if h.update, err = component.NewUpdate(h.link); err != nil {
		return nil, err
	}
	return h, nil
}

// request pulls a record from the peer and accounts for the sent frame.
func (h *hostLink) request(c unifylink.ComponentID, dataID uint8) error {
	var err error
	switch c {
	case unifylink.ComponentMotors:
		err = h.motors.Request(dataID)
	case unifylink.ComponentEncoders:
		err = h.encoders.Request(dataID)
	case unifylink.ComponentUpdate:
		err = h.update.Request(dataID)
	default:
		return fmt.Errorf("no collaborator for %s", unifylink.ComponentName(c))
	}
	if err == nil {
		h.stream.AddTx(c, dataID, unifylink.HeaderSize)
	}
	return err
}

func runStats(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	host, err := newHostLink()
	if err != nil {
		conn.Close()
		return err
	}
	session := newSession(host.link, conn)

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, host.link)
		if err != nil {
			conn.Close()
			return err
		}
		defer srv.Close()
	}

	ctx, stop := signalContext()
	defer stop()

	if useTUI {
		return runStatsTUI(ctx, connInfo, host, session, conn)
	}
	return runStatsText(ctx, connInfo, host, session, conn)
}

// runStatsTUI runs the session in the background while the TUI owns the terminal
func runStatsTUI(ctx context.Context, connInfo string, host *hostLink, session *unifylink.Session, conn Connection) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the TUI owns stderr now
	session.Logger = zerolog.Nop()

	p := tea.NewProgram(newStatsModel(connInfo, host), tea.WithContext(ctx))

	var (
		wg         sync.WaitGroup
		sessionErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionErr = runSession(ctx, session, conn)
		p.Send(sessionDoneMsg{err: sessionErr})
	}()

	_, err := p.Run()
	cancel()
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return sessionErr
}

// runStatsText prints a summary every statsInterval seconds
func runStatsText(ctx context.Context, connInfo string, host *hostLink, session *unifylink.Session, conn Connection) error {
	fmt.Printf("unifylink - Link Statistics\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	done := make(chan error, 1)
	go func() { done <- runSession(ctx, session, conn) }()

	stats := unifylink.NewStatistics()
	ticker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			stats.Update(host.link.Counters())
			fmt.Print(stats.String())
			return err

		case <-ticker.C:
			stats.Update(host.link.Counters())
			fmt.Println()
			fmt.Print(stats.String())
			for _, a := range host.stream.Snapshot().Addresses {
				fmt.Printf("  %-10s 0x%02X  rx=%-8d tx=%-8d bytes=%d\n",
					unifylink.ComponentName(a.Component), a.DataID, a.RxFrames, a.TxFrames, a.RxBytes+a.TxBytes)
			}
			fmt.Println()
		}
	}
}
