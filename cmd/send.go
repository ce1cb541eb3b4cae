// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var (
	sendComponent string
	sendData      string
	sendPayload   string
	sendRepeat    int
	sendInterval  int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single frame",
	Long: `Build a Unify Link frame and write it to the connection.

The component is a name (system, motors, update, encoders, examples) or a
number. The payload is hex; spaces, colons and a 0x prefix are allowed. An
empty payload sends a read-back (pull) request.

Examples:
  unifylink send -p /dev/ttyUSB0 --component motors --data 4 --payload "e803 0000"
  unifylink send -u ws://device/ws --component update --data 2`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendComponent, "component", "", "Component name or id")
	sendCmd.Flags().StringVar(&sendData, "data", "", "Data id")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "", "Payload as hex (empty for a pull request)")
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of frames to send")
	sendCmd.Flags().IntVar(&sendInterval, "interval", 100, "Delay between repeated frames (milliseconds)")
	sendCmd.MarkFlagRequired("component")
	sendCmd.MarkFlagRequired("data")
}

func runSend(cmd *cobra.Command, args []string) error {
	comp, err := parseComponent(sendComponent)
	if err != nil {
		return err
	}
	dataID, err := parseDataID(sendData)
	if err != nil {
		return err
	}
	payload, err := parseHexPayload(sendPayload)
	if err != nil {
		return err
	}
	if sendRepeat < 1 {
		return fmt.Errorf("--repeat must be at least 1")
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug().Str("connection", connInfo).Msg("connected")

	link := newLink()
	out := make([]byte, unifylink.MaxFrameSize)

	for i := 0; i < sendRepeat; i++ {
		seq := link.NextSeq()
		if link.BuildFrame(comp, dataID, payload) == 0 {
			return fmt.Errorf("failed to build frame for %s/0x%02X", unifylink.ComponentName(comp), dataID)
		}
		n := link.DrainOutbound(out)
		if _, err := conn.Write(out[:n]); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}

		fmt.Printf("Sent %s/0x%02X seq=%d len=%d %s\n",
			unifylink.ComponentName(comp), dataID, seq, len(payload), unifylink.FormatPayload(payload))

		if i < sendRepeat-1 {
			time.Sleep(time.Duration(sendInterval) * time.Millisecond)
		}
	}
	return nil
}
