// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Statistics tracks link counters over time and derives rates from them.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters since the last Reset
	Counters Counters

	// Rates (calculated)
	FrameRate float64 // successful frames/sec
	ErrorRate float64 // com + decode errors/sec
	ByteRate  float64 // received bytes/sec

	base   Counters
	latest Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the latest counters read from a Link
func (s *Statistics) Update(c Counters) {
	s.latest = c
	s.Counters = Counters{
		Success:      c.Success - s.base.Success,
		ComErrors:    c.ComErrors - s.base.ComErrors,
		DecodeErrors: c.DecodeErrors - s.base.DecodeErrors,
		RxBytes:      c.RxBytes - s.base.RxBytes,
		RxDropped:    c.RxDropped - s.base.RxDropped,
		TxFrames:     c.TxFrames - s.base.TxFrames,
		TxRejected:   c.TxRejected - s.base.TxRejected,
	}
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame, error and byte rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.Counters.Success) / elapsed
		s.ErrorRate = float64(s.Counters.ComErrors+s.Counters.DecodeErrors) / elapsed
		s.ByteRate = float64(s.Counters.RxBytes) / elapsed
	}
}

// Total returns the number of frames that passed their CRC check.
func (s *Statistics) Total() uint64 {
	return s.Counters.Success + s.Counters.DecodeErrors
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var successPercent, decodePercent float64
	if total := s.Total(); total > 0 {
		successPercent = float64(s.Counters.Success) * 100.0 / float64(total)
		decodePercent = float64(s.Counters.DecodeErrors) * 100.0 / float64(total)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Valid Frames:    %8d\n", s.Total())
	result += fmt.Sprintf("Dispatched:      %8d (%.1f%%)\n", s.Counters.Success, successPercent)

	if s.Counters.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.Counters.DecodeErrors, decodePercent)
	}
	if s.Counters.ComErrors > 0 {
		result += fmt.Sprintf("Lost (seq gap):  %8d\n", s.Counters.ComErrors)
	}
	if s.Counters.RxDropped > 0 {
		result += fmt.Sprintf("Dropped Bytes:   %8d\n", s.Counters.RxDropped)
	}
	if s.Counters.TxFrames > 0 || s.Counters.TxRejected > 0 {
		result += fmt.Sprintf("Sent Frames:     %8d (%d rejected)\n", s.Counters.TxFrames, s.Counters.TxRejected)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += fmt.Sprintf("Byte Rate:       %8.1f bytes/sec\n", s.ByteRate)
	result += "================================\n"

	return result
}

// Reset restarts the statistics window at the current counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.base = s.latest
	s.Counters = Counters{}
	s.FrameRate = 0
	s.ErrorRate = 0
	s.ByteRate = 0
}

// AddressStats holds traffic totals for one (component, data) address.
type AddressStats struct {
	Component ComponentID
	DataID    uint8
	RxFrames  uint64
	TxFrames  uint64
	RxBytes   uint64
	TxBytes   uint64
	LastSeen  time.Time
}

// StreamSnapshot is a point-in-time copy of a StreamStats.
type StreamSnapshot struct {
	RxBytes   uint64
	TxBytes   uint64
	Addresses []AddressStats // sorted by component, then data id
}

// StreamStats counts traffic per address. It is safe for concurrent use,
// so a FrameObserver can feed it while a UI reads it.
type StreamStats struct {
	mu      sync.Mutex
	rxBytes uint64
	txBytes uint64
	byAddr  map[address]*AddressStats
}

// NewStreamStats creates an empty StreamStats.
func NewStreamStats() *StreamStats {
	return &StreamStats{byAddr: make(map[address]*AddressStats)}
}

func (s *StreamStats) get(component ComponentID, dataID uint8) *AddressStats {
	key := address{component, dataID}
	a, ok := s.byAddr[key]
	if !ok {
		a = &AddressStats{Component: component, DataID: dataID}
		s.byAddr[key] = a
	}
	return a
}

// AddRx records a received frame.
func (s *StreamStats) AddRx(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := uint64(HeaderSize + len(f.Payload))
	s.rxBytes += n
	a := s.get(f.Header.Component, f.Header.DataID)
	a.RxFrames++
	a.RxBytes += n
	a.LastSeen = time.Now()
}

// AddTx records a sent frame of n bytes.
func (s *StreamStats) AddTx(component ComponentID, dataID uint8, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txBytes += uint64(n)
	a := s.get(component, dataID)
	a.TxFrames++
	a.TxBytes += uint64(n)
	a.LastSeen = time.Now()
}

// Snapshot returns a copy of the current totals.
func (s *StreamStats) Snapshot() StreamSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StreamSnapshot{
		RxBytes:   s.rxBytes,
		TxBytes:   s.txBytes,
		Addresses: make([]AddressStats, 0, len(s.byAddr)),
	}
	for _, a := range s.byAddr {
		snap.Addresses = append(snap.Addresses, *a)
	}
	sort.Slice(snap.Addresses, func(i, j int) bool {
		ai, aj := snap.Addresses[i], snap.Addresses[j]
		if ai.Component != aj.Component {
			return ai.Component < aj.Component
		}
		return ai.DataID < aj.DataID
	})
	return snap
}
