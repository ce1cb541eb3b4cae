// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package component implements the device collaborators that share a
// unifylink.Link: motors, encoders and firmware update. Each collaborator
// registers its records with the link when it is constructed and keeps
// them as packed little-endian values that both the receive goroutine and
// application goroutines may access.
package component

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// ErrOutboundFull is returned by Send methods when the link cannot queue
// the frame.
var ErrOutboundFull = errors.New("component: outbound buffer full")

// record is one registered (component, data) value.
type record[T any] struct {
	mu       sync.RWMutex
	v        T
	onUpdate func(T)
}

func (r *record[T]) get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v
}

func (r *record[T]) set(v T) {
	r.mu.Lock()
	r.v = v
	r.mu.Unlock()
}

// decode replaces the value with a received payload and fires onUpdate.
func (r *record[T]) decode(payload []byte) bool {
	var v T
	if _, err := binary.Decode(payload, binary.LittleEndian, &v); err != nil {
		return false
	}
	r.mu.Lock()
	r.v = v
	fn := r.onUpdate
	r.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return true
}

func (r *record[T]) encode() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, _ := binary.Append(nil, binary.LittleEndian, &r.v)
	return b
}

func (r *record[T]) setHandler(fn func(T)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

func (r *record[T]) register(link *unifylink.Link, component unifylink.ComponentID, dataID uint8) error {
	var zero T
	return link.Register(component, dataID,
		unifylink.DecodeWith(r.decode, r.encode), uint16(binary.Size(&zero)))
}

// send queues payload on link.
func send(link *unifylink.Link, component unifylink.ComponentID, dataID uint8, payload []byte) error {
	if link.BuildFrame(component, dataID, payload) == 0 {
		return fmt.Errorf("%w: %s/0x%02X (%d bytes)", ErrOutboundFull,
			unifylink.ComponentName(component), dataID, len(payload))
	}
	return nil
}

// request queues a zero-length pull for (component, dataID); the peer
// answers with its current value.
func request(link *unifylink.Link, component unifylink.ComponentID, dataID uint8) error {
	return send(link, component, dataID, nil)
}

// cString returns b up to its first NUL byte.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// putCString stores s in b, truncated and NUL-padded.
func putCString(b []byte, s string) {
	n := copy(b, s)
	clear(b[n:])
}
