// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

// BuildFrame assembles a frame for (component, dataID) carrying payload and
// queues it in the outbound buffer. It returns the number of bytes queued,
// or 0 if the payload exceeds MaxPayloadSize or the buffer lacks room for
// the whole frame. A partial frame is never queued.
func (l *Link) BuildFrame(component ComponentID, dataID uint8, payload []byte) int {
	n := HeaderSize + len(payload)
	if len(payload) > MaxPayloadSize {
		l.txRejected.Add(1)
		return 0
	}

	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	if l.tx.Remain() < n {
		l.txRejected.Add(1)
		return 0
	}

	frame := l.txFrame[:n]
	writeFrame(frame, l.seq, component, dataID, payload)
	l.tx.Push(frame)
	l.seq++
	l.txFrames.Add(1)
	return n
}

// DrainOutbound moves queued bytes into dst and returns how many were
// moved. It returns 0 while less than one header is queued. Frames are
// queued whole, so draining with a dst of at least OutboundUsed bytes
// always yields complete frames.
func (l *Link) DrainOutbound(dst []byte) int {
	used := l.tx.Used()
	if used < HeaderSize {
		return 0
	}
	n := min(used, len(dst))
	if l.tx.Peek(dst[:n], 0) == 0 {
		return 0
	}
	l.tx.Pop(n)
	return n
}

// OutboundUsed returns the number of bytes waiting to be sent.
func (l *Link) OutboundUsed() int {
	return l.tx.Used()
}

// OutboundRemain returns the free space of the outbound buffer.
func (l *Link) OutboundRemain() int {
	return l.tx.Remain()
}

// NextSeq returns the sequence id the next built frame will carry.
func (l *Link) NextSeq() uint8 {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	return l.seq
}
