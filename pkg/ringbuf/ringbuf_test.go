// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ringbuf

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCapacity = 256

func sequence(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func TestInitialState(t *testing.T) {
	b := New(testCapacity)
	require.Equal(t, 0, b.Used())
	require.Equal(t, testCapacity-1, b.Remain())
	require.Equal(t, testCapacity, b.Cap())
}

func TestPushAndPeek(t *testing.T) {
	b := New(testCapacity)
	in := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	out := make([]byte, 5)

	require.Equal(t, 5, b.Push(in))
	require.Equal(t, 5, b.Used())

	require.Equal(t, 5, b.Peek(out, 0))
	require.Equal(t, in, out)
	require.Equal(t, 5, b.Used(), "peek must not consume")
}

func TestPushAndPop(t *testing.T) {
	b := New(testCapacity)
	b.Push([]byte{0xAA, 0xBB, 0xCC})

	require.Equal(t, 2, b.Pop(2))
	require.Equal(t, 1, b.Used())
	require.Equal(t, 1, b.Pop(1))
	require.Equal(t, 0, b.Used())
}

func TestPeekWithOffset(t *testing.T) {
	b := New(testCapacity)
	b.Push([]byte{0x10, 0x20, 0x30, 0x40, 0x50})

	out := make([]byte, 2)
	require.Equal(t, 2, b.Peek(out, 2))
	require.Equal(t, []byte{0x30, 0x40}, out)

	require.Equal(t, 0, b.Peek(out, 4), "offset+len beyond used")
}

func TestZeroLengthOperations(t *testing.T) {
	b := New(testCapacity)
	require.Equal(t, 0, b.Push(nil))
	require.Equal(t, 0, b.Peek(nil, 0))
	require.Equal(t, 0, b.Pop(0))
}

func TestFullBufferRejectsPush(t *testing.T) {
	b := New(testCapacity)
	fill := sequence(testCapacity-1, 0)

	require.Equal(t, len(fill), b.Push(fill))
	require.Equal(t, 0, b.Remain())
	require.Equal(t, 0, b.Push([]byte{0xFF}))
	require.Equal(t, testCapacity-1, b.Used())
}

func TestPushIsAllOrNothing(t *testing.T) {
	b := New(16)
	b.Push(sequence(10, 0))

	require.Equal(t, 0, b.Push(sequence(6, 100)), "only 5 bytes free")
	require.Equal(t, 10, b.Used())
	require.Equal(t, 5, b.Push(sequence(5, 100)))
}

func TestPopIsAllOrNothing(t *testing.T) {
	b := New(16)
	b.Push(sequence(4, 0))

	require.Equal(t, 0, b.Pop(5))
	require.Equal(t, 4, b.Used())
}

func TestWrapAround(t *testing.T) {
	b := New(testCapacity)
	first := sequence(200, 0)
	second := sequence(100, 100)

	require.Equal(t, 200, b.Push(first))
	require.Equal(t, 150, b.Pop(150))
	require.Equal(t, 100, b.Push(second))

	out := make([]byte, 150)
	require.Equal(t, 150, b.Peek(out, 0))
	require.Equal(t, first[150:], out[:50])
	require.Equal(t, second, out[50:])
}

func TestTinyCapacityIsRaised(t *testing.T) {
	b := New(0)
	require.Equal(t, 2, b.Cap())
	require.Equal(t, 1, b.Push([]byte{0x42}))
	require.Equal(t, 0, b.Push([]byte{0x43}))
}

func TestCapacityInvariantRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := New(64)
	var model []byte

	for i := 0; i < 5000; i++ {
		if rng.Intn(2) == 0 {
			p := sequence(rng.Intn(40), byte(i))
			remain := b.Remain()
			n := b.Push(p)
			if len(p) == 0 || len(p) > remain {
				require.Equal(t, 0, n)
			} else {
				require.Equal(t, len(p), n)
				model = append(model, p...)
			}
		} else {
			k := rng.Intn(40)
			n := b.Pop(k)
			if k == 0 || k > len(model) {
				require.Equal(t, 0, n)
			} else {
				require.Equal(t, k, n)
				model = model[k:]
			}
		}

		require.Equal(t, b.Cap()-1, b.Used()+b.Remain())
		require.Equal(t, len(model), b.Used())
		if len(model) > 0 {
			out := make([]byte, len(model))
			require.Equal(t, len(model), b.Peek(out, 0))
			require.Equal(t, model, out)
		}
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const total = 100000
	b := New(97)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		next := 0
		for next < total {
			chunk := 1 + next%13
			if next+chunk > total {
				chunk = total - next
			}
			p := make([]byte, chunk)
			for i := range p {
				p[i] = byte(next + i)
			}
			if b.Push(p) == chunk {
				next += chunk
			}
		}
	}()

	got := 0
	one := make([]byte, 1)
	for got < total {
		if b.Peek(one, 0) == 0 {
			continue
		}
		if one[0] != byte(got) {
			t.Fatalf("byte %d: expected 0x%02X, got 0x%02X", got, byte(got), one[0])
		}
		b.Pop(1)
		got++
	}
	wg.Wait()
	require.Equal(t, 0, b.Used())
}
