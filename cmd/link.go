// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Thermoquad/unifylink/pkg/unifylink"
)

// newLink creates a Link sized from settings.
func newLink(opts ...unifylink.Option) *unifylink.Link {
	base := []unifylink.Option{
		unifylink.WithRxCapacity(cfg.RxBuffer),
		unifylink.WithTxCapacity(cfg.TxBuffer),
	}
	return unifylink.New(append(base, opts...)...)
}

func newSession(link *unifylink.Link, conn Connection) *unifylink.Session {
	s := unifylink.NewSession(link, conn)
	s.Logger = logger.With().Str("module", "session").Logger()
	return s
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runSession runs s until ctx ends or the connection drops, then closes
// conn. A closed connection or a cancelled context is a normal exit.
func runSession(ctx context.Context, s *unifylink.Session, conn Connection) error {
	err := s.Run(ctx)
	conn.Close()

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, ErrConnectionClosed):
		logger.Info().Msg("connection closed")
		return nil
	}
	return err
}

var componentNames = map[string]unifylink.ComponentID{
	"system":   unifylink.ComponentSystem,
	"motors":   unifylink.ComponentMotors,
	"update":   unifylink.ComponentUpdate,
	"encoders": unifylink.ComponentEncoders,
	"examples": unifylink.ComponentExamples,
}

// parseComponent accepts a component name or a number (decimal or 0x hex).
func parseComponent(s string) (unifylink.ComponentID, error) {
	if id, ok := componentNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid component %q", s)
	}
	return unifylink.ComponentID(n), nil
}

func parseDataID(s string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid data id %q", s)
	}
	return uint8(n), nil
}

// parseHexPayload decodes hex with optional spaces, colons or 0x prefix.
func parseHexPayload(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if len(b) > unifylink.MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", unifylink.ErrPayloadTooLarge, len(b))
	}
	return b, nil
}
