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

func TestTemperatureExtractTelemetry(t *testing.T) {
	d := NewTemperatureDecoder(4)
	values, err := d.ExtractTelemetry("C00=0021.1234,C01=0021.1220,C02=9999.9990,C03=0020.9990\r\n")
	require.NoError(t, err)
	require.Len(t, values, 4)
	assert.InDelta(t, 21.1234, values[0], 1e-6)
	assert.InDelta(t, 21.1220, values[1], 1e-6)
	assert.True(t, math.IsNaN(values[2]))
	assert.InDelta(t, 20.9990, values[3], 1e-6)
}

func TestTemperatureExtractTelemetryEmptyLine(t *testing.T) {
	d := NewTemperatureDecoder(3)
	values, err := d.ExtractTelemetry("\r\n")
	require.NoError(t, err)
	require.Len(t, values, 3)
	for _, v := range values {
		assert.True(t, math.IsNaN(v))
	}
}

func TestTemperatureExtractTelemetryPartialFrame(t *testing.T) {
	d := NewTemperatureDecoder(4)
	values, err := d.ExtractTelemetry("C02=0020.0000,C03=0021.0000\r\n")
	require.NoError(t, err)
	require.Len(t, values, 4)
	assert.True(t, math.IsNaN(values[0]))
	assert.True(t, math.IsNaN(values[1]))
	assert.InDelta(t, 20.0, values[2], 1e-6)
	assert.InDelta(t, 21.0, values[3], 1e-6)
}

func TestTemperatureExtractTelemetryMalformedField(t *testing.T) {
	d := NewTemperatureDecoder(2)
	_, err := d.ExtractTelemetry("C00=1=2,C01=0020.0000\r\n")
	assert.Error(t, err)
}

func TestTemperatureExtractTelemetryMissingEquals(t *testing.T) {
	d := NewTemperatureDecoder(2)
	values, err := d.ExtractTelemetry("garbage,C01=0020.0000\r\n")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, math.IsNaN(values[0]))
	assert.InDelta(t, 20.0, values[1], 1e-6)
}
