// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// ResponseCode is the small stable enumeration carried both as a command
// reply and inside every telemetry frame, so a supervisor can tell a live
// reading from a failing device without a second stream.
type ResponseCode int

const (
	OK ResponseCode = iota
	AlreadyStarted
	NotConfigured
	NotStarted
	InvalidConfiguration
	DeviceReadError
)

var responseCodeNames = map[ResponseCode]string{
	OK:                   "OK",
	AlreadyStarted:       "ALREADY_STARTED",
	NotConfigured:        "NOT_CONFIGURED",
	NotStarted:           "NOT_STARTED",
	InvalidConfiguration: "INVALID_CONFIGURATION",
	DeviceReadError:      "DEVICE_READ_ERROR",
}

// String renders the response code the way it is put on the wire: the
// stable name, not the small integer.
func (r ResponseCode) String() string {
	if name, ok := responseCodeNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON encodes a ResponseCode as its wire name.
func (r ResponseCode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON accepts either the wire name or the underlying integer.
func (r *ResponseCode) UnmarshalJSON(data []byte) error {
	s := string(data)
	for code, name := range responseCodeNames {
		if s == `"`+name+`"` {
			*r = code
			return nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		*r = ResponseCode(n)
		return nil
	}
	return errors.Errorf("unknown response code %s", s)
}
