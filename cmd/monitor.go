// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var (
	monitorRecord string
	monitorQuiet  bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display received frames in human-readable format",
	Long: `Continuously parse and display Unify Link frames as they arrive.

Each frame that passes its CRC check is printed with timestamp, component,
data id, sequence id, length and payload. Zero-length frames are read-back
(pull) requests. Link counters are printed on exit.

With --record, the raw traffic is also written to a capture file that the
replay command can read back. With --metrics-addr, link counters are served
for Prometheus at /metrics.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorRecord, "record", "", "Write raw traffic to a capture file")
	monitorCmd.Flags().BoolVarP(&monitorQuiet, "quiet", "q", false, "Do not print frames")
	monitorCmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	link := newLink(unifylink.WithObserver(func(f unifylink.Frame) {
		if !monitorQuiet {
			fmt.Print(unifylink.FormatFrame(time.Now(), f))
		}
	}))
	session := newSession(link, conn)

	if monitorRecord != "" {
		f, err := os.Create(monitorRecord)
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to create capture file: %w", err)
		}
		defer f.Close()

		capture := unifylink.NewCaptureWriter(f)
		session.Tap = func(dir unifylink.Direction, data []byte) {
			if err := capture.Write(dir, data); err != nil {
				logger.Error().Err(err).Msg("capture write failed")
			}
		}
	}

	ctx, stop := signalContext()
	defer stop()

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, link)
		if err != nil {
			conn.Close()
			return err
		}
		defer srv.Close()
	}

	fmt.Printf("unifylink - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if monitorRecord != "" {
		fmt.Printf("Recording: %s\n", monitorRecord)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	err = runSession(ctx, session, conn)

	fmt.Printf("\n%s\n", unifylink.FormatCounters(link.Counters()))
	return err
}
