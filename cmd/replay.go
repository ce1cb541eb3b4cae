// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var replayTx bool

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Decode a capture file recorded by monitor --record",
	Long: `Run a capture file through the frame parser and print every frame with
its original timestamp.

Received traffic is parsed by default. With --tx, sent traffic is parsed as a
separate stream and printed too. Link counters for the received stream are
printed at the end.

No connection is opened.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayTx, "tx", false, "Also decode sent traffic")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	counters, err := replayCapture(f, os.Stdout, replayTx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", unifylink.FormatCounters(counters))
	return nil
}

// replayCapture parses the capture in r, writing one line per frame to w,
// and returns the counters of the received stream.
func replayCapture(r io.Reader, w io.Writer, includeTx bool) (unifylink.Counters, error) {
	reader := unifylink.NewCaptureReader(r)

	var current unifylink.Record
	newStream := func(prefix string) *unifylink.Link {
		return unifylink.New(unifylink.WithObserver(func(f unifylink.Frame) {
			fmt.Fprintf(w, "%s %s", prefix, unifylink.FormatFrame(current.Time(), f))
		}))
	}
	rx := newStream("RX")
	tx := newStream("TX")

	records := 0
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rx.Counters(), fmt.Errorf("record %d: %w", records, err)
		}
		records++
		current = rec

		switch rec.Direction {
		case unifylink.DirectionRx:
			feedLink(rx, rec.Data)
		case unifylink.DirectionTx:
			if includeTx {
				feedLink(tx, rec.Data)
			}
		default:
			logger.Warn().Int("record", records).Stringer("direction", rec.Direction).Msg("skipping record")
		}
	}

	logger.Debug().Int("records", records).Msg("replay complete")
	return rx.Counters(), nil
}

// feedLink pushes data through link, parsing whenever the inbound buffer
// fills up.
func feedLink(link *unifylink.Link, data []byte) {
	for len(data) > 0 {
		n := min(len(data), link.InboundRemain())
		if n > 0 && link.PushInbound(data[:n]) == n {
			data = data[n:]
		}
		link.RunReceiveOnce()
	}
}
