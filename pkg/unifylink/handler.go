// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

// DecodeFunc consumes a received payload. It returns false to reject it.
// The payload slice is only valid for the duration of the call.
type DecodeFunc func(payload []byte) bool

// SnapshotFunc returns the current contents of a record, used to answer a
// zero-length pull request for it.
type SnapshotFunc func() []byte

type handlerKind uint8

const (
	handlerNone handlerKind = iota
	handlerCopy
	handlerDecode
)

// Handler is the destination of frames for one (component, data) address.
// It either copies payloads verbatim into a byte slice (CopyInto) or hands
// them to a decode callback that owns the storage (DecodeWith).
type Handler struct {
	kind     handlerKind
	dst      []byte
	decode   DecodeFunc
	snapshot SnapshotFunc
}

// CopyInto returns a Handler that copies each accepted payload into dst.
// Pull requests are answered with the registered length of dst.
func CopyInto(dst []byte) Handler {
	return Handler{kind: handlerCopy, dst: dst}
}

// DecodeWith returns a Handler that passes each accepted payload to decode.
// snapshot may be nil, in which case pull requests for the address fail.
func DecodeWith(decode DecodeFunc, snapshot SnapshotFunc) Handler {
	return Handler{kind: handlerDecode, decode: decode, snapshot: snapshot}
}

func (h Handler) valid(length int) bool {
	switch h.kind {
	case handlerCopy:
		return h.dst != nil && len(h.dst) >= length
	case handlerDecode:
		return h.decode != nil
	}
	return false
}

// accept stores payload; length has already been checked.
func (h Handler) accept(payload []byte) bool {
	if h.kind == handlerDecode {
		return h.decode(payload)
	}
	copy(h.dst, payload)
	return true
}

// contents returns what a pull request for this address is answered with.
func (h Handler) contents(length int) ([]byte, bool) {
	switch h.kind {
	case handlerCopy:
		return h.dst[:length], true
	case handlerDecode:
		if h.snapshot == nil {
			return nil, false
		}
		b := h.snapshot()
		if len(b) < length {
			return nil, false
		}
		return b[:length], true
	}
	return nil, false
}

type entry struct {
	handler Handler
	length  int
}

type address struct {
	component ComponentID
	dataID    uint8
}
