// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

func encode(t *testing.T, seq uint8, c unifylink.ComponentID, dataID uint8, payload []byte) []byte {
	t.Helper()
	frame, err := unifylink.EncodeFrame(seq, c, dataID, payload)
	require.NoError(t, err)
	return frame
}

func writeCapture(t *testing.T, records ...unifylink.Record) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := unifylink.NewCaptureWriter(&buf)
	for _, r := range records {
		require.NoError(t, w.WriteRecord(r))
	}
	return &buf
}

func TestReplayCapture(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local).UnixNano()

	first := encode(t, 0, unifylink.ComponentMotors, 1, []byte{0xAA, 0xBB})
	second := encode(t, 1, unifylink.ComponentEncoders, 2, nil)
	stream := append(append([]byte{0x00, 0x13}, first...), second...)
	sent := encode(t, 0, unifylink.ComponentMotors, 1, nil)

	capture := writeCapture(t,
		unifylink.Record{UnixNano: ts, Direction: unifylink.DirectionRx, Data: stream[:5]},
		unifylink.Record{UnixNano: ts, Direction: unifylink.DirectionTx, Data: sent},
		unifylink.Record{UnixNano: ts, Direction: unifylink.DirectionRx, Data: stream[5:]},
	)

	var out bytes.Buffer
	c, err := replayCapture(capture, &out, false)
	require.NoError(t, err)

	require.Equal(t, uint64(0), c.Success, "no handlers registered")
	require.Equal(t, uint64(2), c.DecodeErrors)
	require.Equal(t, uint64(0), c.ComErrors)
	require.Equal(t, uint64(len(stream)), c.RxBytes)

	lines := out.String()
	require.Equal(t, 2, strings.Count(lines, "RX [12:00:00.000]"))
	require.Contains(t, lines, "MOTORS/0x01 seq=0 len=2")
	require.Contains(t, lines, "AA BB")
	require.Contains(t, lines, "ENCODERS/0x02 seq=1 len=0")
	require.NotContains(t, lines, "TX ")
}

func TestReplayCaptureIncludeTx(t *testing.T) {
	capture := writeCapture(t,
		unifylink.Record{Direction: unifylink.DirectionTx, Data: encode(t, 7, unifylink.ComponentUpdate, 2, []byte{1, 2})},
		unifylink.Record{Direction: unifylink.DirectionRx, Data: encode(t, 0, unifylink.ComponentUpdate, 2, []byte{3, 4})},
	)

	var out bytes.Buffer
	c, err := replayCapture(capture, &out, true)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.DecodeErrors, "counters cover received traffic only")
	require.Contains(t, out.String(), "TX [")
	require.Contains(t, out.String(), "UPDATE/0x02 seq=7")
}

func TestReplayCaptureLargeRecord(t *testing.T) {
	// One record larger than the inbound buffer
	var data []byte
	for seq := range uint8(10) {
		data = append(data, encode(t, seq, unifylink.ComponentExamples, 1, bytes.Repeat([]byte{seq}, 500))...)
	}
	require.Greater(t, len(data), unifylink.DefaultBufferSize)

	capture := writeCapture(t, unifylink.Record{Direction: unifylink.DirectionRx, Data: data})
	var out bytes.Buffer
	c, err := replayCapture(capture, &out, false)
	require.NoError(t, err)
	require.Equal(t, uint64(10), c.DecodeErrors)
	require.Equal(t, uint64(0), c.ComErrors)
	require.Equal(t, uint64(0), c.RxDropped)
}

func TestReplayCaptureTruncated(t *testing.T) {
	capture := writeCapture(t,
		unifylink.Record{Direction: unifylink.DirectionRx, Data: encode(t, 0, unifylink.ComponentMotors, 1, []byte{1})},
	)
	truncated := bytes.NewReader(capture.Bytes()[:capture.Len()-3])

	var out bytes.Buffer
	_, err := replayCapture(truncated, &out, false)
	require.ErrorContains(t, err, "record 0")
}
