// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package component

import (
	"fmt"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// Encoder data ids
const (
	EncoderBasicID    uint8 = 1
	EncoderInfoID     uint8 = 2
	EncoderSettingsID uint8 = 3
)

// MaxEncoders is the number of encoders a controller reports.
const MaxEncoders = 8

// EncoderErrorCode is the fault reported in EncoderBasic.
type EncoderErrorCode uint8

const (
	EncoderOK              EncoderErrorCode = 0
	EncoderOverflow        EncoderErrorCode = 1
	EncoderMagnetTooStrong EncoderErrorCode = 2
	EncoderMagnetTooWeak   EncoderErrorCode = 3
	EncoderInternalErr     EncoderErrorCode = 255
)

func (c EncoderErrorCode) String() string {
	switch c {
	case EncoderOK:
		return "OK"
	case EncoderOverflow:
		return "OVERFLOW"
	case EncoderMagnetTooStrong:
		return "MAGNET_TOO_STRONG"
	case EncoderMagnetTooWeak:
		return "MAGNET_TOO_WEAK"
	case EncoderInternalErr:
		return "INTERNAL"
	default:
		return fmt.Sprintf("ERROR_%d", uint8(c))
	}
}

// EncoderBasic is the periodic feedback of one encoder (7 bytes).
type EncoderBasic struct {
	Position  uint16
	Velocity  int32
	ErrorCode EncoderErrorCode
}

// EncoderInfo describes the encoder board (62 bytes).
type EncoderInfo struct {
	EncoderID       uint8
	Resolution      uint8
	MaxVelocity     uint32
	MaxPosition     uint32
	RunTime         uint32
	Model           [32]byte
	Serial          [12]byte
	FirmwareVersion uint32
}

// ModelName returns the model string without NUL padding.
func (i EncoderInfo) ModelName() string {
	return cString(i.Model[:])
}

// SetModelName stores name in Model, truncated to 32 bytes.
func (i *EncoderInfo) SetModelName(name string) {
	putCString(i.Model[:], name)
}

// EncoderSettings (2 bytes)
type EncoderSettings struct {
	FeedbackInterval uint8 // ms
	ResetID          uint8
}

// Encoders holds the encoder records of one link.
type Encoders struct {
	link *unifylink.Link

	basic    record[[MaxEncoders]EncoderBasic]
	info     record[EncoderInfo]
	settings record[EncoderSettings]
}

// NewEncoders creates the encoder collaborator and registers its records.
func NewEncoders(link *unifylink.Link) (*Encoders, error) {
	e := &Encoders{link: link}

	c := unifylink.ComponentEncoders
	if err := e.basic.register(link, c, EncoderBasicID); err != nil {
		return nil, fmt.Errorf("failed to register encoder basic: %w", err)
	}
	if err := e.info.register(link, c, EncoderInfoID); err != nil {
		return nil, fmt.Errorf("failed to register encoder info: %w", err)
	}
	if err := e.settings.register(link, c, EncoderSettingsID); err != nil {
		return nil, fmt.Errorf("failed to register encoder settings: %w", err)
	}
	return e, nil
}

// Basic returns the feedback of encoder id.
func (e *Encoders) Basic(id uint8) (EncoderBasic, bool) {
	if id >= MaxEncoders {
		return EncoderBasic{}, false
	}
	return e.basic.get()[id], true
}

func (e *Encoders) Basics() [MaxEncoders]EncoderBasic     { return e.basic.get() }
func (e *Encoders) SetBasics(b [MaxEncoders]EncoderBasic) { e.basic.set(b) }

func (e *Encoders) Info() EncoderInfo           { return e.info.get() }
func (e *Encoders) SetInfo(i EncoderInfo)       { e.info.set(i) }
func (e *Encoders) OnInfo(fn func(EncoderInfo)) { e.info.setHandler(fn) }

func (e *Encoders) Settings() EncoderSettings     { return e.settings.get() }
func (e *Encoders) SetSettings(s EncoderSettings) { e.settings.set(s) }

// OnBasic installs a callback run whenever encoder feedback is received.
func (e *Encoders) OnBasic(fn func([MaxEncoders]EncoderBasic)) {
	e.basic.setHandler(fn)
}

// SendBasic queues the feedback of all encoders.
func (e *Encoders) SendBasic() error {
	return send(e.link, unifylink.ComponentEncoders, EncoderBasicID, e.basic.encode())
}

// SendInfo queues the encoder description.
func (e *Encoders) SendInfo() error {
	return send(e.link, unifylink.ComponentEncoders, EncoderInfoID, e.info.encode())
}

// SendSettings queues the encoder settings.
func (e *Encoders) SendSettings() error {
	return send(e.link, unifylink.ComponentEncoders, EncoderSettingsID, e.settings.encode())
}

// Request asks the peer for its copy of an encoder record.
func (e *Encoders) Request(dataID uint8) error {
	return request(e.link, unifylink.ComponentEncoders, dataID)
}
