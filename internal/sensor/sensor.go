// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package sensor implements the per-sensor-type framing and decoding
// rules for Temperature, HX85A, HX85BA, Wind and SPS30, plus a structural
// placeholder for CSAT3B. Every decoder implements models.Decoder and is
// otherwise stateless between calls.
package sensor

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// nanVector returns a slice of n NaN values, used whenever a line is
// empty or too short to account for every declared channel.
func nanVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// padLeadingNaN pads values with leading NaN up to length n. A partial
// first frame after open may contain only the trailing channels of a
// sensor's output; the missing leading channels are assumed NaN.
func padLeadingNaN(values []float64, n int) []float64 {
	if len(values) >= n {
		return values[len(values)-n:]
	}
	pad := nanVector(n - len(values))
	return append(pad, values...)
}

// parseLabeledField decodes one "LABEL=value" field shared by the
// Temperature, HX85A and HX85BA frame grammars:
//   - no "=" at all: the field carries no value, decodes to NaN.
//   - exactly one "=": the suffix is the numeric value, unless it equals
//     the disconnected sentinel, in which case it decodes to NaN.
//   - more than one "=": the field is malformed; this is a decode error.
func parseLabeledField(field string) (float64, error) {
	parts := strings.Split(field, "=")
	switch len(parts) {
	case 1:
		return math.NaN(), nil
	case 2:
		value := parts[1]
		if value == common.DisconnectedSentinel {
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "field %q has a non-numeric value", field)
		}
		return v, nil
	default:
		return 0, errors.Errorf("field %q has more than one '='", field)
	}
}
