// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/unifylink/pkg/component"
	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

var discoveryTimeout int

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Find out which records the peer serves",
	Long: `Send a pull request for every known record and list the ones the peer
answers.

Probed records:
  motors    basic, info, settings, set current
  encoders  basic, info, settings
  update    firmware info, firmware CRC

Answers are decoded where possible, e.g. motor and encoder model names.

Exit codes:
  0 - At least one record answered
  1 - No record answered before the timeout
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 3, "Timeout in seconds for discovery")
}

// probe is a record address to pull
type probe struct {
	component unifylink.ComponentID
	dataID    uint8
	name      string
}

var discoveryProbes = []probe{
	{unifylink.ComponentMotors, component.MotorBasicID, "motor feedback"},
	{unifylink.ComponentMotors, component.MotorInfoID, "motor info"},
	{unifylink.ComponentMotors, component.MotorSettingsID, "motor settings"},
	{unifylink.ComponentMotors, component.MotorSetCurrentID, "motor setpoints"},
	{unifylink.ComponentEncoders, component.EncoderBasicID, "encoder feedback"},
	{unifylink.ComponentEncoders, component.EncoderInfoID, "encoder info"},
	{unifylink.ComponentEncoders, component.EncoderSettingsID, "encoder settings"},
	{unifylink.ComponentUpdate, component.FirmwareInfoID, "firmware info"},
	{unifylink.ComponentUpdate, component.FirmwareCRCID, "firmware CRC"},
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	var (
		mu       sync.Mutex
		answered = make(map[probe]int)
	)
	host, err := newHostLink(func(f unifylink.Frame) {
		if f.IsPull() {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, p := range discoveryProbes {
			if p.component == f.Component() && p.dataID == f.DataID() {
				if _, seen := answered[p]; !seen {
					fmt.Printf("  %-10s 0x%02X  %-18s %d bytes\n",
						unifylink.ComponentName(p.component), p.dataID, p.name, len(f.Payload))
				}
				answered[p] = len(f.Payload)
			}
		}
	})
	if err != nil {
		conn.Close()
		return err
	}

	fmt.Printf("unifylink - Record Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", discoveryTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(discoveryTimeout)*time.Second)
	defer cancel()

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- runSession(ctx, newSession(host.link, conn), conn) }()

	fmt.Printf("Sending %d pull requests...\n\n", len(discoveryProbes))
	for _, p := range discoveryProbes {
		if err := host.request(p.component, p.dataID); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
		}
	}

	if err := <-sessionErr; err != nil {
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
	}

	// Summary
	mu.Lock()
	found := len(answered)
	mu.Unlock()

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Records answered: %d/%d\n", found, len(discoveryProbes))
	if found == 0 {
		fmt.Printf("No records answered. Check connection and device power.\n")
		os.Exit(1)
	}

	printDiscoveredDetails(host)
	return nil
}

// printDiscoveredDetails prints what the collaborators decoded
func printDiscoveredDetails(host *hostLink) {
	for id := range uint8(component.MaxMotors) {
		info, _ := host.motors.Info(id)
		if name := info.ModelName(); name != "" {
			fmt.Printf("Motor %d: %s (firmware %d, max current %.1f A)\n", id, name, info.FirmwareVersion, info.MaxCurrent)
		}
	}
	if info := host.encoders.Info(); info.ModelName() != "" {
		fmt.Printf("Encoder: %s (firmware %d, resolution %d bits)\n", info.ModelName(), info.FirmwareVersion, info.Resolution)
	}
	if crc := host.update.FirmwareCRC(); crc != 0 {
		fmt.Printf("Firmware CRC: 0x%04X\n", crc)
	}
}
