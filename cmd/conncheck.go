// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var connCheckDuration int

var connCheckCmd = &cobra.Command{
	Use:   "conn_check",
	Short: "Test connection stability",
	Long: `Hold the connection open without sending anything and report what arrives.

Raw chunks are counted as they are read. Frames that pass their CRC check and
sequence gaps are counted too. Useful for debugging connection stability
issues.

Exit codes:
  0 - Test completed normally
  1 - Connection failed during the test
  2 - Connection error`,
	RunE: runConnCheck,
}

func init() {
	rootCmd.AddCommand(connCheckCmd)
	connCheckCmd.Flags().IntVar(&connCheckDuration, "duration", 30, "Test duration in seconds")
}

func runConnCheck(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", connCheckDuration)

	var chunks atomic.Uint64
	link := newLink()
	session := newSession(link, conn)
	session.Tap = func(dir unifylink.Direction, data []byte) {
		if dir == unifylink.DirectionRx {
			chunks.Add(1)
		}
	}

	duration := time.Duration(connCheckDuration) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	start := time.Now()
	sessionErr := make(chan error, 1)
	go func() { sessionErr <- session.Run(ctx) }()

	fmt.Printf("Listening for data...\n\n")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-sessionErr:
			conn.Close()
			c := link.Counters()
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("Chunks received: %d\n", chunks.Load())
			fmt.Printf("Bytes received: %d\n", c.RxBytes)
			fmt.Printf("Valid frames: %d (lost %d)\n", c.Success+c.DecodeErrors, c.ComErrors)

			if ctx.Err() == nil {
				fmt.Printf("\n[%s] Connection error: %v\n", time.Now().Format("15:04:05.000"), err)
				fmt.Printf("Result: FAILED (connection error)\n")
				os.Exit(1)
			}
			fmt.Printf("Result: PASSED (connection stable)\n")
			return nil

		case <-ticker.C:
			// Just a heartbeat to show the test is running
			c := link.Counters()
			fmt.Printf("[%s] Still connected... %d bytes, %d frames (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), c.RxBytes, c.Success+c.DecodeErrors,
				time.Until(start.Add(duration)).Seconds())
		}
	}
}
