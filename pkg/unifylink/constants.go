// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package unifylink implements the Unify Link framing protocol used between
// embedded motor/encoder controllers and a host over a byte stream.
//
// Every frame is an 8-byte header followed by up to 512 payload bytes. The
// header carries a magic byte, a rolling sequence number, a two-level
// (component, data) address, a packed 13-bit length with 3 flag bits, and a
// CRC16 over the rest of the header and the payload. A Link buffers inbound
// bytes, resynchronizes on corruption one byte at a time, counts sequence
// gaps, and dispatches payloads to handlers registered per address.
package unifylink

// Frame layout
const (
	FrameMagic     = 0xA0
	HeaderSize     = 8
	MaxPayloadSize = 512
	MaxFrameSize   = HeaderSize + MaxPayloadSize

	// crcOffset is where the CRC field starts; the bytes before it are
	// covered by the checksum.
	crcOffset = 6
)

// Packed length/flags field
const (
	lengthMask = 0x1FFF
	flagsMask  = 0x7
	flagsShift = 13
)

// DefaultBufferSize is the default capacity of the inbound and outbound
// buffers: room for four maximum-size payloads.
const DefaultBufferSize = MaxPayloadSize * 4

// ComponentID is the first level of a frame address.
type ComponentID uint8

// Well-known component ids. Values above ComponentExamples are free for
// application use.
const (
	ComponentSystem   ComponentID = 0x00
	ComponentMotors   ComponentID = 0x01
	ComponentUpdate   ComponentID = 0x02
	ComponentEncoders ComponentID = 0x03
	ComponentExamples ComponentID = 0x04
)
