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
	pollComponent string
	pollData      string
	pollTimeout   int
	pollCount     int
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Read a record from the peer with a pull request",
	Long: `Send zero-length (pull) frames and wait for the peer to answer with the
current contents of the record.

This is useful for verifying:
  - The connection is established
  - The peer has the record registered
  - Bidirectional frame flow works

Exit codes:
  0 - All polls answered
  1 - One or more polls timed out
  2 - Connection error`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().StringVar(&pollComponent, "component", "motors", "Component name or id")
	pollCmd.Flags().StringVar(&pollData, "data", "1", "Data id")
	pollCmd.Flags().IntVar(&pollTimeout, "timeout", 5, "Timeout in seconds for each poll")
	pollCmd.Flags().IntVar(&pollCount, "count", 3, "Number of polls to send")
}

func runPoll(cmd *cobra.Command, args []string) error {
	comp, err := parseComponent(pollComponent)
	if err != nil {
		return err
	}
	dataID, err := parseDataID(pollData)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("unifylink - Poll\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Record: %s/0x%02X\n", unifylink.ComponentName(comp), dataID)
	fmt.Printf("Timeout: %d seconds per poll\n", pollTimeout)
	fmt.Printf("Count: %d polls\n\n", pollCount)

	replies := make(chan unifylink.Frame, 1)
	link := newLink(unifylink.WithObserver(func(f unifylink.Frame) {
		if f.Component() != comp || f.DataID() != dataID || f.IsPull() {
			return
		}
		select {
		case replies <- f.Clone():
		default:
		}
	}))
	session := newSession(link, conn)

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- runSession(ctx, session, conn) }()

	successCount := 0
	failCount := 0

polls:
	for i := 1; i <= pollCount; i++ {
		fmt.Printf("Poll %d/%d: ", i, pollCount)

		// Discard a late answer to the previous poll
		select {
		case <-replies:
		default:
		}

		seq := link.NextSeq()
		start := time.Now()
		if link.BuildFrame(comp, dataID, nil) == 0 {
			fmt.Printf("SEND FAILED: outbound buffer full\n")
			failCount++
			continue
		}

		select {
		case f := <-replies:
			rtt := time.Since(start)
			fmt.Printf("seq=%d reply seq=%d len=%d rtt=%v\n  %s\n",
				seq, f.Header.Seq, len(f.Payload), rtt.Round(time.Millisecond), unifylink.FormatPayload(f.Payload))
			successCount++

		case err := <-sessionErr:
			if err == nil {
				err = ErrConnectionClosed
			}
			fmt.Printf("READ FAILED: %v\n", err)
			os.Exit(2)

		case <-ctx.Done():
			fmt.Printf("INTERRUPTED\n")
			failCount += pollCount - i + 1
			break polls

		case <-time.After(time.Duration(pollTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no reply in %ds)\n", pollTimeout)
			failCount++
		}

		// Small delay between polls
		if i < pollCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	cancel()
	<-sessionErr

	// Summary
	fmt.Printf("\n--- Poll statistics ---\n")
	fmt.Printf("%d polls sent, %d replies received, %.0f%% loss\n",
		pollCount, successCount, float64(failCount)/float64(pollCount)*100)
	fmt.Printf("%s\n", unifylink.FormatCounters(link.Counters()))

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
