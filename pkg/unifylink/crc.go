// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import "github.com/sigurn/crc16"

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection, no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRCInitial is the seed of a fresh checksum.
const CRCInitial = 0xFFFF

// Checksum computes the CRC16 of data.
func Checksum(data []byte) uint16 {
	return Update(crc16.Init(crcTable), data)
}

// Update continues a checksum over data, so that
// Update(Checksum(a), b) == Checksum(append(a, b...)).
func Update(crc uint16, data []byte) uint16 {
	return crc16.Complete(crc16.Update(crc, data, crcTable), crcTable)
}
