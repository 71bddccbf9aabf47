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

// hx85Terminator and hx85Charset are shared by both Omega HX85 variants:
// they differ only in which physical quantity their third channel
// carries (dew point vs. barometric pressure), not in framing.
const (
	hx85Terminator = "\n\r"
	hx85Charset    = "ISO-8859-1"
)

// HX85Decoder decodes the three-channel frame shared by the HX85A
// (humidity / air temperature / dew point) and HX85BA (humidity / air
// temperature / pressure) sensors: "%RH=hh.hh,AT°C=±tt.tt,<third>=±dd.dd".
// The label text differs between variants but decoding only ever looks
// at the value after "=", so one type serves both.
type HX85Decoder struct {
	delimiter string
}

// NewHX85A builds the decoder for sensor_type HX85A.
func NewHX85A() *HX85Decoder {
	return &HX85Decoder{delimiter: common.DefaultDelimiter}
}

// NewHX85BA builds the decoder for sensor_type HX85BA.
func NewHX85BA() *HX85Decoder {
	return &HX85Decoder{delimiter: common.DefaultDelimiter}
}

func (h *HX85Decoder) Terminator() string { return hx85Terminator }
func (h *HX85Decoder) Delimiter() string  { return h.delimiter }
func (h *HX85Decoder) Length() int        { return 3 }

// ExtractTelemetry strips the terminator and parses the line into the three
// declared channels, padding missing leading channels with NaN.
func (h *HX85Decoder) ExtractTelemetry(line string) ([]float64, error) {
	line = strings.TrimSuffix(line, hx85Terminator)
	if line == "" {
		return nanVector(3), nil
	}

	fields := strings.Split(line, h.delimiter)
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := parseLabeledField(field)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return padLeadingNaN(values, 3), nil
}
