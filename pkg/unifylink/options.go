// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

// FrameObserver is called for every frame that passes its CRC check, before
// it is dispatched. The payload is only valid for the duration of the call.
type FrameObserver func(Frame)

// Config holds Link construction parameters.
type Config struct {
	// RxCapacity is the capacity of the inbound buffer in bytes.
	RxCapacity int

	// TxCapacity is the capacity of the outbound buffer in bytes.
	TxCapacity int

	// Observer sees each valid frame (optional).
	Observer FrameObserver
}

func defaultConfig() Config {
	return Config{
		RxCapacity: DefaultBufferSize,
		TxCapacity: DefaultBufferSize,
	}
}

// Option is a functional option for configuring a Link.
type Option func(*Config)

// WithRxCapacity sets the inbound buffer capacity. Values smaller than one
// maximum-size frame plus the reserved slot are raised to that minimum.
func WithRxCapacity(n int) Option {
	return func(c *Config) {
		c.RxCapacity = n
	}
}

// WithTxCapacity sets the outbound buffer capacity, with the same minimum
// as WithRxCapacity.
func WithTxCapacity(n int) Option {
	return func(c *Config) {
		c.TxCapacity = n
	}
}

// WithObserver installs a FrameObserver.
//
// Example:
//
//	link := unifylink.New(unifylink.WithObserver(func(f unifylink.Frame) {
//	    fmt.Println(unifylink.FormatFrame(time.Now(), f))
//	}))
func WithObserver(fn FrameObserver) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}

func clampCapacity(n int) int {
	if n < MaxFrameSize+1 {
		return MaxFrameSize + 1
	}
	return n
}
