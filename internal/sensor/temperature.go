// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"strings"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// TemperatureDecoder decodes a string of temperature-probe channels, one
// "Cnn=dddd.dddd" field per channel, separated by ",". The declared
// length is the configured channel count, since a temperature string's
// width is a deployment property, not a sensor-type constant.
type TemperatureDecoder struct {
	channels   int
	terminator string
	delimiter  string
}

// NewTemperatureDecoder builds a TemperatureDecoder for the given channel
// count, as configured on the owning DeviceConfig. channels is required,
// and >= 1, for sensor_type Temperature.
func NewTemperatureDecoder(channels int) *TemperatureDecoder {
	return &TemperatureDecoder{
		channels:   channels,
		terminator: common.DefaultTerminator,
		delimiter:  common.DefaultDelimiter,
	}
}

func (t *TemperatureDecoder) Terminator() string { return t.terminator }
func (t *TemperatureDecoder) Delimiter() string  { return t.delimiter }
func (t *TemperatureDecoder) Length() int        { return t.channels }

// ExtractTelemetry strips the terminator and parses the line into t.channels
// values, padding missing leading channels with NaN and decoding the
// disconnected sentinel to NaN.
func (t *TemperatureDecoder) ExtractTelemetry(line string) ([]float64, error) {
	line = strings.TrimSuffix(line, t.terminator)
	if line == "" {
		return nanVector(t.channels), nil
	}

	fields := strings.Split(line, t.delimiter)
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := parseLabeledField(field)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return padLeadingNaN(values, t.channels), nil
}
