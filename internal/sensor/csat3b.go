// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import "github.com/pkg/errors"

// CSAT3BDecoder is a structural placeholder. CSAT3B is accepted in
// configuration (sensor_type = "CSAT3B") but its frame format has never
// been specified. A Device configured with this decoder opens its
// transport normally and then fails every decode with an error, which
// the acquisition loop turns into a telemetry frame with DeviceReadError
// and no channel values (Length is 0), rather than refusing to start.
type CSAT3BDecoder struct{}

// NewCSAT3BDecoder builds the placeholder decoder.
func NewCSAT3BDecoder() *CSAT3BDecoder { return &CSAT3BDecoder{} }

func (c *CSAT3BDecoder) Terminator() string { return "\r\n" }
func (c *CSAT3BDecoder) Delimiter() string  { return "," }
func (c *CSAT3BDecoder) Length() int        { return 0 }

func (c *CSAT3BDecoder) ExtractTelemetry(line string) ([]float64, error) {
	return nil, errors.New("CSAT3B decoder is not implemented: no frame format has been specified")
}
