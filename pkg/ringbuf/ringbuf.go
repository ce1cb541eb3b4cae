// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ringbuf provides a fixed-capacity byte queue that is safe for one
// producer and one consumer running concurrently without locks.
//
// The producer owns head and is the only caller of Push. The consumer owns
// tail and is the only caller of Peek and Pop. Each side publishes its index
// with an atomic store after touching the backing array, so a reader that
// observes the new index also observes the bytes behind it. One slot is kept
// empty to tell a full buffer from an empty one, so a buffer created with
// capacity N holds at most N-1 bytes.
package ringbuf

import "sync/atomic"

// Buffer is a single-producer/single-consumer ring of bytes.
type Buffer struct {
	buf  []byte
	size uint32

	head atomic.Uint32 // next write position, producer-owned
	tail atomic.Uint32 // next read position, consumer-owned
}

// New creates a Buffer with the given capacity. Capacities below 2 are
// raised to 2 so that at least one byte can be stored.
func New(capacity int) *Buffer {
	if capacity < 2 {
		capacity = 2
	}
	return &Buffer{
		buf:  make([]byte, capacity),
		size: uint32(capacity),
	}
}

// Cap returns the capacity the buffer was created with.
func (b *Buffer) Cap() int {
	return int(b.size)
}

// Used returns the number of buffered bytes. Safe from either side.
func (b *Buffer) Used() int {
	h := b.head.Load()
	t := b.tail.Load()
	return int((h + b.size - t) % b.size)
}

// Remain returns the number of bytes that can still be pushed.
func (b *Buffer) Remain() int {
	return int(b.size) - 1 - b.Used()
}

// Push appends p to the buffer. It writes all of p or nothing, and returns
// the number of bytes written. Producer only.
func (b *Buffer) Push(p []byte) int {
	n := uint32(len(p))
	if n == 0 {
		return 0
	}

	h := b.head.Load()
	t := b.tail.Load()
	free := b.size - 1 - (h+b.size-t)%b.size
	if uint64(len(p)) > uint64(free) {
		return 0
	}

	first := copy(b.buf[h:], p)
	copy(b.buf, p[first:])

	b.head.Store((h + n) % b.size)
	return int(n)
}

// Peek copies len(dst) bytes starting offset bytes past the read position
// into dst without consuming them. It returns 0 if that many bytes are not
// buffered. Consumer only.
func (b *Buffer) Peek(dst []byte, offset int) int {
	if len(dst) == 0 || offset < 0 {
		return 0
	}

	t := b.tail.Load()
	h := b.head.Load()
	used := int((h + b.size - t) % b.size)
	if offset+len(dst) > used {
		return 0
	}

	start := (t + uint32(offset)) % b.size
	first := copy(dst, b.buf[start:])
	copy(dst[first:], b.buf)
	return len(dst)
}

// Pop discards n bytes from the read position. It discards all n or
// nothing, and returns the number of bytes discarded. Consumer only.
func (b *Buffer) Pop(n int) int {
	if n <= 0 {
		return 0
	}

	t := b.tail.Load()
	h := b.head.Load()
	used := int((h + b.size - t) % b.size)
	if n > used {
		return 0
	}

	b.tail.Store((t + uint32(n)) % b.size)
	return n
}
