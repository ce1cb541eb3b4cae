// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFlushInterval is how often a Session checks the outbound buffer
// when no inbound data arrives.
const DefaultFlushInterval = 5 * time.Millisecond

// pushRetries bounds how often the reader waits for the receive loop to
// free inbound space before dropping a chunk.
const pushRetries = 3

// Session pumps a byte stream (serial port, WebSocket) through a Link.
//
// A reader goroutine is the only producer of the inbound buffer; Run is
// the only consumer of the inbound buffer and the only drainer of the
// outbound buffer, which keeps both buffers single-producer/single-consumer.
type Session struct {
	Link *Link
	Conn io.ReadWriter

	Logger        zerolog.Logger
	FlushInterval time.Duration

	// Tap sees raw bytes in both directions (optional). It is called from
	// the reader goroutine for DirectionRx and from Run for DirectionTx.
	Tap func(dir Direction, data []byte)
}

// NewSession creates a Session with a disabled logger.
func NewSession(link *Link, conn io.ReadWriter) *Session {
	return &Session{
		Link:          link,
		Conn:          conn,
		Logger:        zerolog.Nop(),
		FlushInterval: DefaultFlushInterval,
	}
}

// Run processes the stream until ctx is cancelled or the connection fails.
// Closing the connection is the caller's job; a reader blocked in Read is
// released by that.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := s.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	dataCh := make(chan struct{}, 1)
	errCh := make(chan error, 1)
	go s.readLoop(ctx, dataCh, errCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := make([]byte, s.Link.cfg.TxCapacity)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-dataCh:
			if n := s.Link.RunReceiveOnce(); n > 0 {
				s.Logger.Trace().Int("frames", n).Msg("parsed frames")
			}
		case <-ticker.C:
		}

		if err := s.flush(out); err != nil {
			return err
		}
	}
}

// flush writes everything queued in the outbound buffer to the connection.
func (s *Session) flush(out []byte) error {
	for {
		n := s.Link.DrainOutbound(out)
		if n == 0 {
			return nil
		}
		if s.Tap != nil {
			s.Tap(DirectionTx, out[:n])
		}
		if _, err := s.Conn.Write(out[:n]); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		s.Logger.Trace().Int("bytes", n).Msg("sent")
	}
}

func (s *Session) readLoop(ctx context.Context, dataCh chan<- struct{}, errCh chan<- error) {
	buf := make([]byte, MaxFrameSize)
	for {
		n, err := s.Conn.Read(buf)
		if n > 0 {
			if s.Tap != nil {
				s.Tap(DirectionRx, buf[:n])
			}
			s.push(ctx, buf[:n], dataCh)
		}
		if err != nil {
			select {
			case errCh <- fmt.Errorf("read failed: %w", err):
			default:
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// push hands a chunk to the link, giving the receive loop a few chances to
// make room when the inbound buffer is full.
func (s *Session) push(ctx context.Context, p []byte, dataCh chan<- struct{}) {
	for attempt := 0; ; attempt++ {
		if s.Link.pushInbound(p) > 0 {
			notify(dataCh)
			return
		}
		if attempt == pushRetries {
			s.Link.rxDropped.Add(uint64(len(p)))
			s.Logger.Warn().Int("bytes", len(p)).Msg("inbound buffer full, dropping data")
			return
		}
		notify(dataCh)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
