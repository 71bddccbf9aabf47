// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"

	"github.com/pkg/errors"
)

// FTDI is the USB Virtual Communications Port transport. FTDI's VCP
// driver exposes its device as a regular tty node to the OS, so FTDI is a
// thin tagged variant around the same Serial primitive rather than a
// distinct byte-level implementation; the flush-on-open sequence is the
// one behavior this variant adds on top of Serial.
type FTDI struct {
	*Serial
	deviceID string
}

// NewFTDI builds an FTDI transport for the device identified by deviceID
// (its VCP tty node, e.g. /dev/ttyUSB0 once attached) at baud.
func NewFTDI(deviceID string, baud int) *FTDI {
	return &FTDI{Serial: NewSerial(deviceID, baud), deviceID: deviceID}
}

// Open opens the underlying tty node, then flushes it. A failed flush is
// treated the same as a failed open, since a flush failure here almost
// always means the VCP enumeration raced the open.
func (f *FTDI) Open(ctx context.Context) error {
	if err := f.Serial.Open(ctx); err != nil {
		return errors.Wrapf(err, "opening FTDI device %s", f.deviceID)
	}
	if err := f.Serial.Flush(); err != nil {
		_ = f.Serial.Close()
		return errors.Wrapf(err, "flushing FTDI device %s after open", f.deviceID)
	}
	return nil
}
