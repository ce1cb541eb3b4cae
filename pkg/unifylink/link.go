// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"sync"
	"sync/atomic"

	"github.com/Thermoquad/unifylink/pkg/ringbuf"
)

// Receive state machine states
type rxState int

const (
	stateScanning        rxState = iota // looking for a magic byte
	stateHeaderFound                    // peeked a header, length not yet checked
	stateAwaitingPayload                // waiting for the whole frame to be buffered
	stateDispatching                    // frame complete and CRC-valid
)

// noSeq is the last-seen sequence id before any frame arrives, so that a
// peer starting at 0 is not counted as a gap.
const noSeq = 0xFF

// Counters is a snapshot of a Link's counters.
type Counters struct {
	Success      uint64 // frames dispatched successfully
	ComErrors    uint64 // accumulated sequence gap size
	DecodeErrors uint64 // frames with no handler or rejected by it
	RxBytes      uint64 // bytes accepted into the inbound buffer
	RxDropped    uint64 // bytes rejected because the inbound buffer was full
	TxFrames     uint64 // frames queued for sending
	TxRejected   uint64 // frames refused for size or buffer space
}

// Link is the protocol engine. It owns the inbound and outbound buffers,
// the handler table and the counters.
//
// Concurrency: one goroutine may push inbound bytes while another runs the
// receive state machine. Frames may be built from any goroutine; the send
// path is serialized internally. DrainOutbound must only be called from
// one goroutine. Register is a setup operation and must not run
// concurrently with RunReceiveOnce or Dispatch.
type Link struct {
	cfg Config

	rx *ringbuf.Buffer
	tx *ringbuf.Buffer

	handlers map[address]entry

	// receive side, owned by the RunReceiveOnce caller
	lastSeq   uint8
	rxHeader  [HeaderSize]byte
	rxPayload [MaxPayloadSize]byte

	// send side
	sendMu  sync.Mutex
	seq     uint8
	txFrame [MaxFrameSize]byte

	success      atomic.Uint64
	comErrors    atomic.Uint64
	decodeErrors atomic.Uint64
	rxBytes      atomic.Uint64
	rxDropped    atomic.Uint64
	txFrames     atomic.Uint64
	txRejected   atomic.Uint64
}

// New creates a Link.
func New(opts ...Option) *Link {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.RxCapacity = clampCapacity(cfg.RxCapacity)
	cfg.TxCapacity = clampCapacity(cfg.TxCapacity)

	return &Link{
		cfg:      cfg,
		rx:       ringbuf.New(cfg.RxCapacity),
		tx:       ringbuf.New(cfg.TxCapacity),
		handlers: make(map[address]entry),
		lastSeq:  noSeq,
	}
}

// Register installs h as the destination of frames addressed to
// (component, dataID) carrying exactly length payload bytes. It replaces
// any previous registration for that address.
func (l *Link) Register(component ComponentID, dataID uint8, h Handler, length uint16) error {
	if int(length) > MaxPayloadSize {
		return &RegistrationError{Component: component, DataID: dataID, Err: ErrPayloadTooLarge}
	}
	if !h.valid(int(length)) {
		return &RegistrationError{Component: component, DataID: dataID, Err: ErrInvalidHandler}
	}
	l.handlers[address{component, dataID}] = entry{handler: h, length: int(length)}
	return nil
}

// Registered reports whether a handler exists for (component, dataID) and
// returns its expected payload length.
func (l *Link) Registered(component ComponentID, dataID uint8) (int, bool) {
	e, ok := l.handlers[address{component, dataID}]
	return e.length, ok
}

// Dispatch delivers a payload to the handler registered for
// (component, dataID). A zero-length payload is a pull request: instead of
// decoding, the registered record is sent back with BuildFrame. Dispatch
// returns false if no handler exists, the length does not match, the
// handler rejects the payload, or the pull answer cannot be queued.
func (l *Link) Dispatch(component ComponentID, dataID uint8, payload []byte) bool {
	e, ok := l.handlers[address{component, dataID}]
	if !ok {
		return false
	}

	if len(payload) == 0 {
		data, ok := e.handler.contents(e.length)
		if !ok {
			return false
		}
		return l.BuildFrame(component, dataID, data) > 0
	}

	if len(payload) != e.length {
		return false
	}
	return e.handler.accept(payload)
}

// PushInbound appends received bytes to the inbound buffer. It accepts all
// of p or nothing and returns the number of bytes accepted. Only one
// goroutine may push at a time.
func (l *Link) PushInbound(p []byte) int {
	n := l.pushInbound(p)
	if n == 0 {
		l.rxDropped.Add(uint64(len(p)))
	}
	return n
}

func (l *Link) pushInbound(p []byte) int {
	n := l.rx.Push(p)
	l.rxBytes.Add(uint64(n))
	return n
}

// InboundUsed returns the number of bytes waiting to be parsed.
func (l *Link) InboundUsed() int {
	return l.rx.Used()
}

// InboundRemain returns the free space of the inbound buffer.
func (l *Link) InboundRemain() int {
	return l.rx.Remain()
}

// RunReceiveOnce parses and dispatches every complete frame currently
// buffered. It stops when fewer than a header's worth of bytes remain or
// when a frame's payload has not fully arrived, and returns the number of
// frames that passed their CRC check.
func (l *Link) RunReceiveOnce() int {
	var (
		frames int
		hdr    Header
		length int
	)
	state := stateScanning

	for l.rx.Used() >= HeaderSize {
		switch state {
		case stateScanning:
			l.rx.Peek(l.rxHeader[:], 0)
			if l.rxHeader[0] != FrameMagic {
				l.rx.Pop(1)
				continue
			}
			hdr, _ = ParseHeader(l.rxHeader[:])
			state = stateHeaderFound

		case stateHeaderFound:
			length = hdr.Length()
			if length > MaxPayloadSize {
				l.rx.Pop(1)
				state = stateScanning
				continue
			}
			state = stateAwaitingPayload

		case stateAwaitingPayload:
			if l.rx.Used() < HeaderSize+length {
				return frames
			}
			payload := l.rxPayload[:length]
			l.rx.Peek(payload, HeaderSize)
			if headerChecksum(l.rxHeader[:], payload) != hdr.CRC {
				// the true frame boundary is unknown, slide by one byte
				l.rx.Pop(1)
				state = stateScanning
				continue
			}
			state = stateDispatching

		case stateDispatching:
			l.accountSeq(hdr.Seq)
			l.rx.Pop(HeaderSize + length)
			frames++

			payload := l.rxPayload[:length]
			if obs := l.cfg.Observer; obs != nil {
				obs(Frame{Header: hdr, Payload: payload})
			}
			if l.Dispatch(hdr.Component, hdr.DataID, payload) {
				l.success.Add(1)
			} else {
				l.decodeErrors.Add(1)
			}
			state = stateScanning
		}
	}
	return frames
}

// accountSeq adds the forward distance between the expected and received
// sequence ids to the communication error counter.
func (l *Link) accountSeq(seq uint8) {
	expected := l.lastSeq + 1
	if seq != expected {
		l.comErrors.Add(uint64(seq - expected))
	}
	l.lastSeq = seq
}

// Counters returns a snapshot of the link counters. Safe from any goroutine.
func (l *Link) Counters() Counters {
	return Counters{
		Success:      l.success.Load(),
		ComErrors:    l.comErrors.Load(),
		DecodeErrors: l.decodeErrors.Load(),
		RxBytes:      l.rxBytes.Load(),
		RxDropped:    l.rxDropped.Load(),
		TxFrames:     l.txFrames.Load(),
		TxRejected:   l.txRejected.Load(),
	}
}
