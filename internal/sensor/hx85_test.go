// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHX85AExtractTelemetryEmptyLine(t *testing.T) {
	d := NewHX85A()
	values, err := d.ExtractTelemetry(d.Terminator())
	require.NoError(t, err)
	require.Len(t, values, 3)
	for _, v := range values {
		assert.True(t, math.IsNaN(v))
	}
}

func TestHX85AExtractTelemetryPartialFrame(t *testing.T) {
	d := NewHX85A()
	line := "86,AT°C=24.32,DP°C=9.57" + d.Terminator()
	values, err := d.ExtractTelemetry(line)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.True(t, math.IsNaN(values[0]))
	assert.InDelta(t, 24.32, values[1], 1e-6)
	assert.InDelta(t, 9.57, values[2], 1e-6)
}

func TestHX85BAExtractTelemetry(t *testing.T) {
	d := NewHX85BA()
	line := "%RH=55.12,AT°C=21.00,Pmb=1013.25" + d.Terminator()
	values, err := d.ExtractTelemetry(line)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 55.12, values[0], 1e-6)
	assert.InDelta(t, 21.00, values[1], 1e-6)
	assert.InDelta(t, 1013.25, values[2], 1e-6)
}

func TestHX85ExtractTelemetryMalformedField(t *testing.T) {
	d := NewHX85A()
	line := "%RH=1=2,AT°C=21.00,DP°C=9.57" + d.Terminator()
	_, err := d.ExtractTelemetry(line)
	assert.Error(t, err)
}
