// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid Unify Link frame",
	Long: `Wait for a valid Unify Link frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any frame
that passes its CRC check. Garbage bytes are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("unifylink - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	frames := make(chan unifylink.Frame, 1)
	link := newLink(unifylink.WithObserver(func(f unifylink.Frame) {
		select {
		case frames <- f.Clone():
		default:
		}
	}))
	session := newSession(link, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(frameTestTimeout)*time.Second)
	defer cancel()

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- session.Run(ctx) }()

	select {
	case f := <-frames:
		cancel()
		conn.Close()
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Component: %s (0x%02X)\n", unifylink.ComponentName(f.Component()), uint8(f.Component()))
		fmt.Printf("  Data: 0x%02X\n", f.DataID())
		fmt.Printf("  Seq: %d\n", f.Header.Seq)
		fmt.Printf("  Length: %d bytes\n", len(f.Payload))
		fmt.Printf("  CRC: 0x%04X\n", f.Header.CRC)
		os.Exit(0)

	case err := <-sessionErr:
		conn.Close()
		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	return nil
}
