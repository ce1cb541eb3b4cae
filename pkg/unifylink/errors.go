// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"errors"
	"fmt"
)

var (
	// ErrShortHeader is returned when fewer than HeaderSize bytes are given.
	ErrShortHeader = errors.New("unifylink: short frame header")
	// ErrInvalidHandler is returned when registering a zero Handler or a
	// copy destination that cannot hold the registered length.
	ErrInvalidHandler = errors.New("unifylink: invalid handler")
	// ErrPayloadTooLarge is returned for lengths above MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("unifylink: payload too large")
)

// RegistrationError reports a rejected Register call.
type RegistrationError struct {
	Component ComponentID
	DataID    uint8
	Err       error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s/0x%02X: %v", ComponentName(e.Component), e.DataID, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
