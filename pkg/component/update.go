// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package component

import (
	"fmt"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// Update data ids
const (
	FirmwareInfoID uint8 = 1
	FirmwareCRCID  uint8 = 2
)

// FirmwareBlockSize is the size of the firmware info record.
const FirmwareBlockSize = 256

// Update holds the firmware update records of one link.
type Update struct {
	link *unifylink.Link

	info record[[FirmwareBlockSize]byte]
	crc  record[uint16]
}

// NewUpdate creates the update collaborator and registers its records.
func NewUpdate(link *unifylink.Link) (*Update, error) {
	u := &Update{link: link}

	if err := u.info.register(link, unifylink.ComponentUpdate, FirmwareInfoID); err != nil {
		return nil, fmt.Errorf("failed to register firmware info: %w", err)
	}
	if err := u.crc.register(link, unifylink.ComponentUpdate, FirmwareCRCID); err != nil {
		return nil, fmt.Errorf("failed to register firmware crc: %w", err)
	}
	return u, nil
}

// FirmwareInfo returns the firmware info block.
func (u *Update) FirmwareInfo() [FirmwareBlockSize]byte {
	return u.info.get()
}

// SetFirmwareInfo copies up to FirmwareBlockSize bytes of b into the info
// block; the rest is zeroed.
func (u *Update) SetFirmwareInfo(b []byte) {
	var block [FirmwareBlockSize]byte
	copy(block[:], b)
	u.info.set(block)
}

// FirmwareCRC returns the announced firmware checksum.
func (u *Update) FirmwareCRC() uint16 {
	return u.crc.get()
}

func (u *Update) SetFirmwareCRC(crc uint16) {
	u.crc.set(crc)
}

// OnFirmwareCRC installs a callback run whenever a checksum is received.
func (u *Update) OnFirmwareCRC(fn func(uint16)) {
	u.crc.setHandler(fn)
}

// Verify reports whether image matches the announced checksum. The
// checksum uses the same CRC as frames.
func (u *Update) Verify(image []byte) bool {
	return unifylink.Checksum(image) == u.FirmwareCRC()
}

func (u *Update) SendFirmwareInfo() error {
	return send(u.link, unifylink.ComponentUpdate, FirmwareInfoID, u.info.encode())
}

func (u *Update) SendFirmwareCRC() error {
	return send(u.link, unifylink.ComponentUpdate, FirmwareCRCID, u.crc.encode())
}

// Request asks the peer for its copy of an update record.
func (u *Update) Request(dataID uint8) error {
	return request(u.link, unifylink.ComponentUpdate, dataID)
}
