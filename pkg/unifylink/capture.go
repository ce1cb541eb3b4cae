// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unifylink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction tells whether captured bytes were received or sent.
type Direction uint8

const (
	DirectionRx Direction = 1
	DirectionTx Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionRx:
		return "RX"
	case DirectionTx:
		return "TX"
	default:
		return fmt.Sprintf("DIR(%d)", uint8(d))
	}
}

// Record is one chunk of raw link traffic in a capture file. A capture is a
// plain sequence of CBOR-encoded records.
type Record struct {
	UnixNano  int64     `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	Data      []byte    `cbor:"3,keyasint"`
}

// Time returns the record timestamp.
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNano)
}

// CaptureWriter appends records to a capture stream. Safe for concurrent use.
type CaptureWriter struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewCaptureWriter creates a CaptureWriter on w.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// Write records data travelling in direction dir, timestamped now.
func (c *CaptureWriter) Write(dir Direction, data []byte) error {
	return c.WriteRecord(Record{UnixNano: time.Now().UnixNano(), Direction: dir, Data: data})
}

// WriteRecord appends a record as-is.
func (c *CaptureWriter) WriteRecord(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode capture record: %w", err)
	}
	return nil
}

// CaptureReader reads records from a capture stream.
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader creates a CaptureReader on r.
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (c *CaptureReader) Next() (Record, error) {
	var r Record
	if err := c.dec.Decode(&r); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return r, nil
}
