// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// unifylink - Unify Link protocol tool
//
// A CLI tool for monitoring, decoding and driving devices that speak the
// Unify Link framing protocol over serial or WebSocket.

package main

import (
	"os"

	"github.com/Thermoquad/unifylink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
