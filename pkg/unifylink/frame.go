// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"encoding/binary"
	"fmt"
)

// Frame is a received frame as seen by a FrameObserver.
type Frame struct {
	Header  Header
	Payload []byte
}

// Component returns the frame's component id.
func (f Frame) Component() ComponentID {
	return f.Header.Component
}

// DataID returns the frame's data id.
func (f Frame) DataID() uint8 {
	return f.Header.DataID
}

// IsPull reports whether the frame is a zero-length read-back request.
func (f Frame) IsPull() bool {
	return len(f.Payload) == 0
}

// Clone returns a copy of the frame whose payload outlives the observer call.
func (f Frame) Clone() Frame {
	p := make([]byte, len(f.Payload))
	copy(p, f.Payload)
	return Frame{Header: f.Header, Payload: p}
}

// EncodeFrame creates a complete wire-formatted frame with the given
// sequence number. Most callers should use Link.BuildFrame, which manages
// the sequence counter; EncodeFrame is for tools and tests that need to
// control it.
func EncodeFrame(seq uint8, component ComponentID, dataID uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	frame := make([]byte, HeaderSize+len(payload))
	writeFrame(frame, seq, component, dataID, payload)
	return frame, nil
}

// writeFrame assembles header, payload and CRC into frame, which must be
// exactly HeaderSize+len(payload) long.
func writeFrame(frame []byte, seq uint8, component ComponentID, dataID uint8, payload []byte) {
	h := Header{
		Magic:     FrameMagic,
		Seq:       seq,
		Component: component,
		DataID:    dataID,
	}
	h.SetFlagsAndLength(0, len(payload))
	h.MarshalTo(frame)
	copy(frame[HeaderSize:], payload)

	crc := headerChecksum(frame, frame[HeaderSize:])
	binary.LittleEndian.PutUint16(frame[crcOffset:HeaderSize], crc)
}
