// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// buildWindLine builds a Gill Polar-Continuous frame, with a deliberately
// wrong checksum when validChecksum is false.
func buildWindLine(speed, direction string, validChecksum bool) string {
	body := unitIdentifier + "," + direction + "," + speed + "," + windspeedUnit + "," + goodStatus + ","

	var checksum byte
	for i := 0; i < len(body); i++ {
		checksum ^= body[i]
	}
	if !validChecksum {
		checksum = 0
	}

	return startCharacter + body + endCharacter + fmt.Sprintf("%02x", checksum) + common.DefaultTerminator
}

func TestWindExtractTelemetry(t *testing.T) {
	d := NewWindDecoder(nil)

	values, err := d.ExtractTelemetry(buildWindLine("015.00", "010", true))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, values[0], 1e-6)
	assert.InDelta(t, 10.0, values[1], 1e-6)
}

func TestWindExtractTelemetryEmptyDirection(t *testing.T) {
	d := NewWindDecoder(nil)

	values, err := d.ExtractTelemetry(buildWindLine("001.00", "", true))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, values[0], 1e-6)
	assert.True(t, math.IsNaN(values[1]))
}

func TestWindExtractTelemetryBadChecksum(t *testing.T) {
	d := NewWindDecoder(nil)

	values, err := d.ExtractTelemetry(buildWindLine("015.00", "010", false))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(values[0]))
	assert.True(t, math.IsNaN(values[1]))
}

func TestWindExtractTelemetryEmptyLine(t *testing.T) {
	d := NewWindDecoder(nil)

	values, err := d.ExtractTelemetry(common.DefaultTerminator)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(values[0]))
	assert.True(t, math.IsNaN(values[1]))
}

func TestWindExtractTelemetryMalformedLine(t *testing.T) {
	d := NewWindDecoder(nil)

	_, err := d.ExtractTelemetry("not a wind frame" + common.DefaultTerminator)
	assert.Error(t, err)
}
