// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package component

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// transfer moves everything queued on from into to and parses it.
func transfer(t *testing.T, from, to *unifylink.Link) {
	t.Helper()
	buf := make([]byte, from.OutboundUsed())
	require.Equal(t, len(buf), from.DrainOutbound(buf))
	require.Equal(t, len(buf), to.PushInbound(buf))
	to.RunReceiveOnce()
}

func TestWireSizes(t *testing.T) {
	require.Equal(t, 8, binary.Size(MotorBasic{}))
	require.Equal(t, 73, binary.Size(MotorInfo{}))
	require.Equal(t, 3, binary.Size(MotorSettings{}))
	require.Equal(t, 4, binary.Size(MotorSet{}))
	require.Equal(t, 7, binary.Size(EncoderBasic{}))
	require.Equal(t, 62, binary.Size(EncoderInfo{}))
	require.Equal(t, 2, binary.Size(EncoderSettings{}))
}

func TestRegistrations(t *testing.T) {
	link := unifylink.New()
	_, err := NewMotors(link)
	require.NoError(t, err)
	_, err = NewEncoders(link)
	require.NoError(t, err)
	_, err = NewUpdate(link)
	require.NoError(t, err)

	tests := []struct {
		component unifylink.ComponentID
		dataID    uint8
		length    int
	}{
		{unifylink.ComponentMotors, MotorBasicID, 64},
		{unifylink.ComponentMotors, MotorInfoID, 73},
		{unifylink.ComponentMotors, MotorSettingsID, 3},
		{unifylink.ComponentMotors, MotorSetCurrentID, 32},
		{unifylink.ComponentEncoders, EncoderBasicID, 56},
		{unifylink.ComponentEncoders, EncoderInfoID, 62},
		{unifylink.ComponentEncoders, EncoderSettingsID, 2},
		{unifylink.ComponentUpdate, FirmwareInfoID, 256},
		{unifylink.ComponentUpdate, FirmwareCRCID, 2},
	}
	for _, tt := range tests {
		length, ok := link.Registered(tt.component, tt.dataID)
		require.True(t, ok, "%s/%d", unifylink.ComponentName(tt.component), tt.dataID)
		require.Equal(t, tt.length, length, "%s/%d", unifylink.ComponentName(tt.component), tt.dataID)
	}
}

// ============================================================
// Motors
// ============================================================

func newMotorPair(t *testing.T) (device, host *unifylink.Link, dm, hm *Motors) {
	t.Helper()
	device, host = unifylink.New(), unifylink.New()
	var err error
	dm, err = NewMotors(device)
	require.NoError(t, err)
	hm, err = NewMotors(host)
	require.NoError(t, err)
	return
}

func TestMotorInfoRoundTrip(t *testing.T) {
	device, host, dm, hm := newMotorPair(t)

	var seen []MotorInfo
	hm.OnInfo(func(i MotorInfo) { seen = append(seen, i) })

	sent := MotorInfo{
		MotorID:         5,
		Ratio:           6.0,
		MaxSpeed:        5000.0,
		MaxCurrent:      15.0,
		TorqueConstant:  0.05,
		MaxPosition:     200000,
		RunTime:         1000,
		Serial:          [12]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC},
		FirmwareVersion: 0x01020304,
	}
	sent.SetModelName("TestMotor123")
	require.True(t, dm.SetInfo(sent))
	require.NoError(t, dm.SendInfo(5))

	transfer(t, device, host)
	require.Equal(t, uint64(1), host.Counters().Success)

	got, ok := hm.Info(5)
	require.True(t, ok)
	require.Equal(t, sent, got)
	require.Equal(t, "TestMotor123", got.ModelName())
	require.Len(t, seen, 1)

	other, _ := hm.Info(0)
	require.Equal(t, MotorInfo{}, other)
}

func TestMotorInfoRejectsBadID(t *testing.T) {
	link := unifylink.New()
	m, err := NewMotors(link)
	require.NoError(t, err)

	info := MotorInfo{MotorID: MaxMotors}
	payload, err := binary.Append(nil, binary.LittleEndian, &info)
	require.NoError(t, err)

	require.False(t, link.Dispatch(unifylink.ComponentMotors, MotorInfoID, payload))
	require.False(t, m.SetInfo(info))
	_, ok := m.Info(MaxMotors)
	require.False(t, ok)
}

func TestMotorInfoMultiple(t *testing.T) {
	device, host, dm, hm := newMotorPair(t)

	for i := uint8(0); i < MaxMotors; i++ {
		require.True(t, dm.SetInfo(MotorInfo{MotorID: i, RunTime: uint32(i) * 10}))
		require.NoError(t, dm.SendInfo(i))
	}
	transfer(t, device, host)
	require.Equal(t, uint64(MaxMotors), host.Counters().Success)

	for i := uint8(0); i < MaxMotors; i++ {
		info, _ := hm.Info(i)
		require.Equal(t, i, info.MotorID)
		require.Equal(t, uint32(i)*10, info.RunTime)
	}
}

func TestMotorSetpointsRoundTrip(t *testing.T) {
	host, device, hm, dm := newMotorPair(t)

	for i := uint8(0); i < MaxMotors; i++ {
		require.True(t, hm.SetCurrent(i, int16(1000+int(i)*100)))
	}
	require.False(t, hm.SetCurrent(MaxMotors, 1))
	require.NoError(t, hm.SendSetpoints())

	transfer(t, host, device)
	require.Equal(t, uint64(1), device.Counters().Success)
	for i, s := range dm.Setpoints() {
		require.Equal(t, int16(1000+i*100), s.Set)
		require.Equal(t, int16(0), s.SetExtra)
	}
}

func TestMotorSettingsCallback(t *testing.T) {
	device, host, dm, hm := newMotorPair(t)

	var got MotorSettings
	called := false
	hm.OnSettings(func(s MotorSettings) {
		got = s
		called = true
	})

	sent := MotorSettings{FeedbackInterval: 10, ResetID: 3, Mode: MotorSpeedControl}
	dm.SetSettings(sent)
	require.NoError(t, dm.SendSettings())
	transfer(t, device, host)

	require.True(t, called)
	require.Equal(t, sent, got)
	require.Equal(t, sent, hm.Settings())
}

func TestMotorBasicPull(t *testing.T) {
	device, host, dm, hm := newMotorPair(t)

	var feedback [MaxMotors]MotorBasic
	for i := range feedback {
		feedback[i] = MotorBasic{Position: uint16(i * 100), Speed: int16(-i), Current: 42, Temperature: 30, ErrorCode: MotorOK}
	}
	feedback[7].ErrorCode = MotorOverHeat
	dm.SetBasics(feedback)

	require.NoError(t, hm.Request(MotorBasicID))
	transfer(t, host, device)
	require.Equal(t, uint64(1), device.Counters().Success)

	transfer(t, device, host)
	require.Equal(t, feedback, hm.Basics())
	b, ok := hm.Basic(7)
	require.True(t, ok)
	require.Equal(t, "OVER_HEAT", b.ErrorCode.String())
}

func TestMotorInfoPullAnswersLastStored(t *testing.T) {
	device, host, dm, hm := newMotorPair(t)
	require.True(t, dm.SetInfo(MotorInfo{MotorID: 2, MaxPosition: 4200}))

	require.NoError(t, hm.Request(MotorInfoID))
	transfer(t, host, device)
	transfer(t, device, host)

	info, _ := hm.Info(2)
	require.Equal(t, uint32(4200), info.MaxPosition)
}

func TestSendOutboundFull(t *testing.T) {
	link := unifylink.New(unifylink.WithTxCapacity(unifylink.MaxFrameSize + 1))
	u, err := NewUpdate(link)
	require.NoError(t, err)

	// one 264-byte frame fits in 520 usable bytes, a second does not
	require.NoError(t, u.SendFirmwareInfo())
	err = u.SendFirmwareInfo()
	require.True(t, errors.Is(err, ErrOutboundFull))
	require.NoError(t, u.SendFirmwareCRC())
}

// ============================================================
// Encoders
// ============================================================

func TestEncoderRoundTrip(t *testing.T) {
	device, host := unifylink.New(), unifylink.New()
	de, err := NewEncoders(device)
	require.NoError(t, err)
	he, err := NewEncoders(host)
	require.NoError(t, err)

	var basics [MaxEncoders]EncoderBasic
	for i := range basics {
		basics[i] = EncoderBasic{Position: uint16(i), Velocity: int32(-100000 * i), ErrorCode: EncoderOK}
	}
	basics[3].ErrorCode = EncoderMagnetTooWeak
	de.SetBasics(basics)

	info := EncoderInfo{EncoderID: 1, Resolution: 14, MaxVelocity: 9000, MaxPosition: 16383, RunTime: 7, FirmwareVersion: 0x0A0B0C0D}
	info.SetModelName("AS5047")
	de.SetInfo(info)
	de.SetSettings(EncoderSettings{FeedbackInterval: 5, ResetID: 1})

	updates := 0
	he.OnBasic(func([MaxEncoders]EncoderBasic) { updates++ })

	require.NoError(t, de.SendBasic())
	require.NoError(t, de.SendInfo())
	require.NoError(t, de.SendSettings())
	transfer(t, device, host)

	require.Equal(t, uint64(3), host.Counters().Success)
	require.Equal(t, basics, he.Basics())
	require.Equal(t, info, he.Info())
	require.Equal(t, "AS5047", he.Info().ModelName())
	require.Equal(t, EncoderSettings{FeedbackInterval: 5, ResetID: 1}, he.Settings())
	require.Equal(t, 1, updates)

	b, ok := he.Basic(3)
	require.True(t, ok)
	require.Equal(t, "MAGNET_TOO_WEAK", b.ErrorCode.String())
	_, ok = he.Basic(MaxEncoders)
	require.False(t, ok)
}

// ============================================================
// Update
// ============================================================

func TestUpdateRoundTrip(t *testing.T) {
	device, host := unifylink.New(), unifylink.New()
	du, err := NewUpdate(device)
	require.NoError(t, err)
	hu, err := NewUpdate(host)
	require.NoError(t, err)

	image := make([]byte, 4096)
	for i := range image {
		image[i] = byte(i * 31)
	}
	block := make([]byte, FirmwareBlockSize)
	for i := range block {
		block[i] = byte(i)
	}

	hu.SetFirmwareInfo(block)
	hu.SetFirmwareCRC(unifylink.Checksum(image))
	require.NoError(t, hu.SendFirmwareInfo())
	require.NoError(t, hu.SendFirmwareCRC())

	var announced uint16
	du.OnFirmwareCRC(func(crc uint16) { announced = crc })
	transfer(t, host, device)

	require.Equal(t, uint64(2), device.Counters().Success)
	info := du.FirmwareInfo()
	require.Equal(t, block, info[:])
	require.Equal(t, unifylink.Checksum(image), announced)
	require.True(t, du.Verify(image))

	image[100] ^= 0x01
	require.False(t, du.Verify(image))
}

func TestModelNameTruncates(t *testing.T) {
	var info MotorInfo
	info.SetModelName("a-model-name-that-is-longer-than-thirty-two-bytes")
	require.Len(t, info.ModelName(), 32)

	info.SetModelName("short")
	require.Equal(t, "short", info.ModelName())
}
