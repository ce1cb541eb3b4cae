// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"math/rand"
	"testing"
)

func TestChecksum_Empty(t *testing.T) {
	if crc := Checksum(nil); crc != CRCInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x29B1, // CRC-16/CCITT-FALSE check value
		},
		{
			name:     "single zero byte",
			data:     []byte{0x00},
			expected: 0xE1F0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if crc := Checksum(tt.data); crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	if Checksum(data) != Checksum(data) {
		t.Error("CRC should be deterministic")
	}
}

func TestChecksum_DifferentData(t *testing.T) {
	a := Checksum([]byte{0xAA, 0xBB, 0xCC})
	b := Checksum([]byte{0xAA, 0xBB, 0xCD})
	if a == b {
		t.Errorf("one-byte change should change CRC, both 0x%04X", a)
	}
}

func TestChecksum_AllZerosAndOnes(t *testing.T) {
	zeros := make([]byte, 16)
	if crc := Checksum(zeros); crc == 0x0000 {
		t.Error("CRC of zeros should not be zero")
	}
	ones := make([]byte, 16)
	for i := range ones {
		ones[i] = 0xFF
	}
	if crc := Checksum(ones); crc == CRCInitial {
		t.Error("CRC of 0xFF bytes should differ from the seed")
	}
}

func TestUpdate_Chaining(t *testing.T) {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i * 7)
	}
	full := Checksum(data)

	for _, split := range []int{0, 1, 6, 8, 255, 599, 600} {
		chained := Update(Checksum(data[:split]), data[split:])
		if chained != full {
			t.Errorf("split %d: chained 0x%04X != full 0x%04X", split, chained, full)
		}
	}
}

func TestChecksum_SingleBitSensitivity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		data := make([]byte, 1+rng.Intn(MaxPayloadSize))
		rng.Read(data)
		orig := Checksum(data)

		for bit := 0; bit < len(data)*8; bit += 1 + rng.Intn(17) {
			data[bit/8] ^= 1 << (bit % 8)
			if Checksum(data) == orig {
				t.Fatalf("round %d: flipping bit %d did not change CRC", round, bit)
			}
			data[bit/8] ^= 1 << (bit % 8)
		}
	}
}
