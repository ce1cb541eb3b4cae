// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package component

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// Motor data ids
const (
	MotorBasicID      uint8 = 1
	MotorInfoID       uint8 = 2
	MotorSettingsID   uint8 = 3
	MotorSetCurrentID uint8 = 4
)

// MaxMotors is the number of motors a controller reports.
const MaxMotors = 8

// MotorErrorCode is the fault reported in MotorBasic.
type MotorErrorCode uint8

const (
	MotorOK          MotorErrorCode = 0
	MotorOverHeat    MotorErrorCode = 1
	MotorInternalErr MotorErrorCode = 255
)

func (c MotorErrorCode) String() string {
	switch c {
	case MotorOK:
		return "OK"
	case MotorOverHeat:
		return "OVER_HEAT"
	case MotorInternalErr:
		return "INTERNAL"
	default:
		return fmt.Sprintf("ERROR_%d", uint8(c))
	}
}

// MotorMode selects the control loop.
type MotorMode uint8

const (
	MotorCurrentControl  MotorMode = 0
	MotorSpeedControl    MotorMode = 1
	MotorPositionControl MotorMode = 2
	MotorMITControl      MotorMode = 3
)

// MotorBasic is the periodic feedback of one motor (8 bytes on the wire).
type MotorBasic struct {
	Position    uint16
	Speed       int16
	Current     uint16
	Temperature int8
	ErrorCode   MotorErrorCode
}

// MotorInfo describes one motor (73 bytes on the wire).
type MotorInfo struct {
	MotorID         uint8
	Ratio           float32 // gear ratio
	MaxSpeed        float32 // rad/s
	MaxCurrent      float32 // A
	TorqueConstant  float32 // Nm/A
	MaxPosition     uint32
	RunTime         uint32 // hours
	Model           [32]byte
	Serial          [12]byte
	FirmwareVersion uint32
}

// ModelName returns the model string without NUL padding.
func (i MotorInfo) ModelName() string {
	return cString(i.Model[:])
}

// SetModelName stores name in Model, truncated to 32 bytes.
func (i *MotorInfo) SetModelName(name string) {
	putCString(i.Model[:], name)
}

// MotorSettings is shared by all motors of a controller (3 bytes).
type MotorSettings struct {
	FeedbackInterval uint8 // ms
	ResetID          uint8
	Mode             MotorMode
}

// MotorSet is the setpoint of one motor (4 bytes).
type MotorSet struct {
	Set      int16
	SetExtra int16
}

// Motors holds the motor records of one link.
type Motors struct {
	link *unifylink.Link

	basic    record[[MaxMotors]MotorBasic]
	settings record[MotorSettings]
	set      record[[MaxMotors]MotorSet]

	infoMu   sync.RWMutex
	info     [MaxMotors]MotorInfo
	lastInfo uint8
	onInfo   func(MotorInfo)
}

// NewMotors creates the motor collaborator and registers its records.
func NewMotors(link *unifylink.Link) (*Motors, error) {
	m := &Motors{link: link}

	c := unifylink.ComponentMotors
	if err := m.basic.register(link, c, MotorBasicID); err != nil {
		return nil, fmt.Errorf("failed to register motor basic: %w", err)
	}
	if err := link.Register(c, MotorInfoID, unifylink.DecodeWith(m.decodeInfo, m.encodeLastInfo), uint16(binary.Size(MotorInfo{}))); err != nil {
		return nil, fmt.Errorf("failed to register motor info: %w", err)
	}
	if err := m.settings.register(link, c, MotorSettingsID); err != nil {
		return nil, fmt.Errorf("failed to register motor settings: %w", err)
	}
	if err := m.set.register(link, c, MotorSetCurrentID); err != nil {
		return nil, fmt.Errorf("failed to register motor setpoints: %w", err)
	}
	return m, nil
}

// decodeInfo stores a received MotorInfo in the slot named by its MotorID.
func (m *Motors) decodeInfo(payload []byte) bool {
	var info MotorInfo
	if _, err := binary.Decode(payload, binary.LittleEndian, &info); err != nil {
		return false
	}
	if info.MotorID >= MaxMotors {
		return false
	}

	m.infoMu.Lock()
	m.info[info.MotorID] = info
	m.lastInfo = info.MotorID
	fn := m.onInfo
	m.infoMu.Unlock()

	if fn != nil {
		fn(info)
	}
	return true
}

// encodeLastInfo answers an info pull with the most recently stored motor.
func (m *Motors) encodeLastInfo() []byte {
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	b, _ := binary.Append(nil, binary.LittleEndian, &m.info[m.lastInfo])
	return b
}

// Basic returns the feedback of motor id.
func (m *Motors) Basic(id uint8) (MotorBasic, bool) {
	if id >= MaxMotors {
		return MotorBasic{}, false
	}
	return m.basic.get()[id], true
}

// Basics returns the feedback of all motors.
func (m *Motors) Basics() [MaxMotors]MotorBasic {
	return m.basic.get()
}

// SetBasics replaces the local feedback table, e.g. before SendBasic.
func (m *Motors) SetBasics(b [MaxMotors]MotorBasic) {
	m.basic.set(b)
}

// Info returns the description of motor id.
func (m *Motors) Info(id uint8) (MotorInfo, bool) {
	if id >= MaxMotors {
		return MotorInfo{}, false
	}
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	return m.info[id], true
}

// SetInfo stores info in the slot named by its MotorID.
func (m *Motors) SetInfo(info MotorInfo) bool {
	if info.MotorID >= MaxMotors {
		return false
	}
	m.infoMu.Lock()
	m.info[info.MotorID] = info
	m.lastInfo = info.MotorID
	m.infoMu.Unlock()
	return true
}

// OnInfo installs a callback run on the receive goroutine whenever a
// MotorInfo is accepted.
func (m *Motors) OnInfo(fn func(MotorInfo)) {
	m.infoMu.Lock()
	m.onInfo = fn
	m.infoMu.Unlock()
}

// Settings returns the controller settings.
func (m *Motors) Settings() MotorSettings {
	return m.settings.get()
}

// SetSettings replaces the local settings.
func (m *Motors) SetSettings(s MotorSettings) {
	m.settings.set(s)
}

// OnSettings installs a callback run whenever settings are received.
func (m *Motors) OnSettings(fn func(MotorSettings)) {
	m.settings.setHandler(fn)
}

// Setpoints returns the setpoints of all motors.
func (m *Motors) Setpoints() [MaxMotors]MotorSet {
	return m.set.get()
}

// SetCurrent sets the current setpoint of motor id. Ids out of range are
// ignored and reported with false.
func (m *Motors) SetCurrent(id uint8, current int16) bool {
	if id >= MaxMotors {
		return false
	}
	m.set.mu.Lock()
	m.set.v[id] = MotorSet{Set: current}
	m.set.mu.Unlock()
	return true
}

// SendBasic queues the feedback of all motors.
func (m *Motors) SendBasic() error {
	return send(m.link, unifylink.ComponentMotors, MotorBasicID, m.basic.encode())
}

// SendInfo queues the description of motor id.
func (m *Motors) SendInfo(id uint8) error {
	info, ok := m.Info(id)
	if !ok {
		return fmt.Errorf("motor id %d out of range", id)
	}
	b, err := binary.Append(nil, binary.LittleEndian, &info)
	if err != nil {
		return err
	}
	return send(m.link, unifylink.ComponentMotors, MotorInfoID, b)
}

// SendSettings queues the controller settings.
func (m *Motors) SendSettings() error {
	return send(m.link, unifylink.ComponentMotors, MotorSettingsID, m.settings.encode())
}

// SendSetpoints queues the setpoints of all motors.
func (m *Motors) SendSetpoints() error {
	return send(m.link, unifylink.ComponentMotors, MotorSetCurrentID, m.set.encode())
}

// Request asks the peer for its copy of a motor record.
func (m *Motors) Request(dataID uint8) error {
	return request(m.link, unifylink.ComponentMotors, dataID)
}
