// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"fmt"
	"strings"
	"time"
)

// maxDumpBytes limits how much of a payload FormatFrame prints.
const maxDumpBytes = 32

// ComponentName returns the human-readable name for a component id
func ComponentName(id ComponentID) string {
	switch id {
	case ComponentSystem:
		return "SYSTEM"
	case ComponentMotors:
		return "MOTORS"
	case ComponentUpdate:
		return "UPDATE"
	case ComponentEncoders:
		return "ENCODERS"
	case ComponentExamples:
		return "EXAMPLES"
	default:
		return fmt.Sprintf("COMPONENT_0x%02X", uint8(id))
	}
}

// FormatFrame formats a frame into a human-readable string
func FormatFrame(ts time.Time, f Frame) string {
	h := f.Header
	result := fmt.Sprintf("[%s] %s/0x%02X seq=%d len=%d crc=0x%04X",
		ts.Format("15:04:05.000"), ComponentName(h.Component), h.DataID, h.Seq, h.Length(), h.CRC)
	if flags := h.Flags(); flags != 0 {
		result += fmt.Sprintf(" flags=0x%X", flags)
	}
	if f.IsPull() {
		return result + " (pull)\n"
	}
	return result + "\n  " + FormatPayload(f.Payload) + "\n"
}

// FormatPayload renders payload bytes as hex, truncated after maxDumpBytes
func FormatPayload(payload []byte) string {
	if len(payload) == 0 {
		return "(empty)"
	}
	shown := payload
	if len(shown) > maxDumpBytes {
		shown = shown[:maxDumpBytes]
	}
	var sb strings.Builder
	for i, b := range shown {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	if len(payload) > maxDumpBytes {
		fmt.Fprintf(&sb, " ... (+%d bytes)", len(payload)-maxDumpBytes)
	}
	return sb.String()
}

// FormatCounters renders counters on one line
func FormatCounters(c Counters) string {
	return fmt.Sprintf("success=%d com_errors=%d decode_errors=%d rx_bytes=%d rx_dropped=%d tx_frames=%d tx_rejected=%d",
		c.Success, c.ComErrors, c.DecodeErrors, c.RxBytes, c.RxDropped, c.TxFrames, c.TxRejected)
}
