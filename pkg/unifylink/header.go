// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import "encoding/binary"

// Header is the fixed 8-byte frame header.
//
// Wire layout (16-bit fields little-endian):
//
//	[MAGIC][SEQ][COMPONENT][DATA_ID][LEN_FLAGS_L][LEN_FLAGS_H][CRC_L][CRC_H]
type Header struct {
	Magic       uint8
	Seq         uint8
	Component   ComponentID
	DataID      uint8
	LengthFlags uint16 // bits 12..0 length, bits 15..13 flags
	CRC         uint16
}

// Length returns the 13-bit payload length.
func (h Header) Length() int {
	return int(h.LengthFlags & lengthMask)
}

// SetLength stores n in the length bits, keeping the flags. Values that do
// not fit in 13 bits are truncated.
func (h *Header) SetLength(n int) {
	h.LengthFlags = h.LengthFlags&^lengthMask | uint16(n)&lengthMask
}

// Flags returns the 3 reserved flag bits.
func (h Header) Flags() uint8 {
	return uint8(h.LengthFlags>>flagsShift) & flagsMask
}

// SetFlags stores f in the flag bits, keeping the length.
func (h *Header) SetFlags(f uint8) {
	h.LengthFlags = h.LengthFlags&lengthMask | uint16(f&flagsMask)<<flagsShift
}

// SetFlagsAndLength packs both fields at once.
func (h *Header) SetFlagsAndLength(f uint8, n int) {
	h.LengthFlags = uint16(f&flagsMask)<<flagsShift | uint16(n)&lengthMask
}

// MarshalTo writes the header into the first HeaderSize bytes of b.
// b must be at least HeaderSize long.
func (h Header) MarshalTo(b []byte) {
	_ = b[HeaderSize-1]
	b[0] = h.Magic
	b[1] = h.Seq
	b[2] = byte(h.Component)
	b[3] = h.DataID
	binary.LittleEndian.PutUint16(b[4:6], h.LengthFlags)
	binary.LittleEndian.PutUint16(b[6:8], h.CRC)
}

// Bytes returns the wire form of the header.
func (h Header) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	h.MarshalTo(b[:])
	return b
}

// ParseHeader decodes a header from the first HeaderSize bytes of b.
// The magic byte is not checked.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return Header{
		Magic:       b[0],
		Seq:         b[1],
		Component:   ComponentID(b[2]),
		DataID:      b[3],
		LengthFlags: binary.LittleEndian.Uint16(b[4:6]),
		CRC:         binary.LittleEndian.Uint16(b[6:8]),
	}, nil
}

// headerChecksum computes the CRC over the header fields that precede the
// CRC field, chained with payload.
func headerChecksum(raw []byte, payload []byte) uint16 {
	return Update(Checksum(raw[:crcOffset]), payload)
}
