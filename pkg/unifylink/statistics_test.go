// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"strings"
	"testing"
	"time"
)

// ============================================================
// Statistics
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	s.Update(Counters{Success: 10, DecodeErrors: 2, ComErrors: 3, RxBytes: 500})

	if s.Total() != 12 {
		t.Errorf("expected 12 valid frames, got %d", s.Total())
	}
	if s.Counters.ComErrors != 3 {
		t.Errorf("expected 3 com errors, got %d", s.Counters.ComErrors)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(Counters{Success: 10, RxBytes: 100})
	s.Reset()

	if s.Total() != 0 {
		t.Errorf("reset should clear the window, got %d", s.Total())
	}

	s.Update(Counters{Success: 15, RxBytes: 180})
	if s.Counters.Success != 5 || s.Counters.RxBytes != 80 {
		t.Errorf("expected deltas since reset, got %+v", s.Counters)
	}
}

func TestStatistics_Rates(t *testing.T) {
	s := NewStatistics()
	s.StartTime = time.Now().Add(-2 * time.Second)
	s.Update(Counters{Success: 100, ComErrors: 4, DecodeErrors: 6, RxBytes: 2000})
	s.CalculateRates()

	if s.FrameRate < 40 || s.FrameRate > 50 {
		t.Errorf("frame rate %.1f, expected about 50", s.FrameRate)
	}
	if s.ErrorRate < 4 || s.ErrorRate > 5 {
		t.Errorf("error rate %.1f, expected about 5", s.ErrorRate)
	}
	if s.ByteRate < 800 || s.ByteRate > 1000 {
		t.Errorf("byte rate %.1f, expected about 1000", s.ByteRate)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update(Counters{Success: 9, DecodeErrors: 1, ComErrors: 2, RxDropped: 7, TxFrames: 3})
	out := s.String()

	for _, want := range []string{"Valid Frames:", "Dispatched:", "(90.0%)", "Decode Errors:", "Lost (seq gap):", "Dropped Bytes:", "Sent Frames:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	clean := NewStatistics()
	clean.Update(Counters{Success: 1})
	if strings.Contains(clean.String(), "Decode Errors:") {
		t.Error("clean summary should omit zero error lines")
	}
}

// ============================================================
// StreamStats
// ============================================================

func TestStreamStats(t *testing.T) {
	s := NewStreamStats()
	s.AddRx(Frame{Header: Header{Component: ComponentEncoders, DataID: 1}, Payload: make([]byte, 56)})
	s.AddRx(Frame{Header: Header{Component: ComponentMotors, DataID: 2}, Payload: make([]byte, 73)})
	s.AddRx(Frame{Header: Header{Component: ComponentMotors, DataID: 2}, Payload: nil})
	s.AddTx(ComponentMotors, 2, HeaderSize)

	snap := s.Snapshot()
	if snap.RxBytes != 64+81+8 || snap.TxBytes != 8 {
		t.Errorf("totals rx=%d tx=%d", snap.RxBytes, snap.TxBytes)
	}
	if len(snap.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(snap.Addresses))
	}

	motors := snap.Addresses[0]
	if motors.Component != ComponentMotors || motors.RxFrames != 2 || motors.TxFrames != 1 {
		t.Errorf("motors entry %+v", motors)
	}
	if snap.Addresses[1].Component != ComponentEncoders || snap.Addresses[1].RxBytes != 64 {
		t.Errorf("encoders entry %+v", snap.Addresses[1])
	}
	if motors.LastSeen.IsZero() {
		t.Error("LastSeen not set")
	}
}

// ============================================================
// Formatter
// ============================================================

func TestComponentName(t *testing.T) {
	tests := []struct {
		id   ComponentID
		want string
	}{
		{ComponentSystem, "SYSTEM"},
		{ComponentMotors, "MOTORS"},
		{ComponentUpdate, "UPDATE"},
		{ComponentEncoders, "ENCODERS"},
		{ComponentExamples, "EXAMPLES"},
		{ComponentID(0x42), "COMPONENT_0x42"},
	}
	for _, tt := range tests {
		if got := ComponentName(tt.id); got != tt.want {
			t.Errorf("ComponentName(%d) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestFormatFrame(t *testing.T) {
	ts := time.Date(2025, 1, 2, 13, 4, 5, 6_000_000, time.UTC)
	h := Header{Magic: FrameMagic, Seq: 7, Component: ComponentMotors, DataID: 2, CRC: 0x1234}
	h.SetLength(3)

	out := FormatFrame(ts, Frame{Header: h, Payload: []byte{0xDE, 0xAD, 0x01}})
	for _, want := range []string{"[13:04:05.006]", "MOTORS/0x02", "seq=7", "len=3", "crc=0x1234", "DE AD 01"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}

	h.SetFlagsAndLength(0x2, 0)
	out = FormatFrame(ts, Frame{Header: h})
	if !strings.Contains(out, "(pull)") || !strings.Contains(out, "flags=0x2") {
		t.Errorf("pull output: %s", out)
	}
}

func TestFormatPayload_Truncates(t *testing.T) {
	out := FormatPayload(make([]byte, 40))
	if !strings.HasSuffix(out, "... (+8 bytes)") {
		t.Errorf("unexpected truncation: %s", out)
	}
	if FormatPayload(nil) != "(empty)" {
		t.Errorf("empty payload: %s", FormatPayload(nil))
	}
}
