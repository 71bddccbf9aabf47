// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// This package defines the interfaces used to build the environmental
// sensor controller. Transport provides an abstraction layer for the
// byte-level connection to an attached instrument; Decoder provides an
// abstraction layer for the sensor-specific framing and channel semantics
// layered on top of it.
package models

import "context"

// Transport is a low-level, device-specific interface used by a Device to
// move bytes to and from one attached instrument. Implementations are
// tagged variants (FTDI VCP, Serial, Mock) rather than a class hierarchy:
// a Device owns exactly one Transport value for its lifetime.
type Transport interface {

	// Open performs whatever is required to make the underlying byte
	// stream ready for Read/Write: for FTDI this means establishing the
	// USB context and flushing input/output; for Serial this means
	// opening the /dev/tty* node at the configured baud. Open is not
	// required to be idempotent; callers are responsible for not calling
	// it twice on an already-open Transport.
	Open(ctx context.Context) error

	// Close releases the underlying byte stream. Close must be safe to
	// call on a Transport that was never successfully opened, and safe
	// to call more than once.
	Close() error

	// Read blocks until at least one byte is available, the supplied
	// context is done, or the Transport's own internal read timeout (if
	// any) elapses, and returns the bytes read so far. A zero-length,
	// nil-error return means "nothing available yet, try again".
	Read(ctx context.Context) ([]byte, error)

	// Write sends bytes to the instrument. Not every sensor needs it
	// (only the SPS30 command/response state machine writes commands),
	// but every Transport exposes it so Device does not need to special
	// case by sensor family.
	Write(ctx context.Context, data []byte) error

	// Flush discards any buffered, unread input and any unsent, buffered
	// output. Called once right after a successful Open.
	Flush() error

	// IsOpen reports whether Open has succeeded and Close has not yet
	// been called.
	IsOpen() bool

	// Baud returns the baud rate the transport was constructed with (the
	// Mock transport reports its configured value without using it).
	Baud() int
}

// Decoder is the sensor-specific framing and channel-decoding interface.
// A Decoder owns no state across calls other than its declared constants;
// Device supplies it one already-terminated line at a time.
type Decoder interface {

	// Terminator is the byte sequence that ends one logical sensor
	// frame, e.g. "\r\n" or "\n\r".
	Terminator() string

	// Delimiter is the byte sequence between fields within one frame,
	// e.g. ",".
	Delimiter() string

	// Length is the number of channel values ExtractTelemetry always
	// returns, regardless of how many fields were actually present in
	// the line (missing leading channels are padded with NaN).
	Length() int

	// ExtractTelemetry strips the trailing terminator from line and
	// decodes the rest into exactly Length() channel values. A line that
	// is empty or only the terminator decodes to a vector of NaN. A line that cannot be parsed at all returns a decode error;
	// the caller (the device acquisition loop) is responsible for
	// turning that into a NaN frame with DeviceReadError.
	ExtractTelemetry(line string) ([]float64, error)
}
