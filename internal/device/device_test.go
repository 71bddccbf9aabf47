// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/internal/sensor"
	"github.com/lsst-ts/envsensors-controller-go/internal/transport"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

func fixedClock() float64 { return 12345.0 }

func TestDeviceOpenEmitsTelemetry(t *testing.T) {
	mock := transport.NewMock("C01=0021.1234,C02=0021.1220\r\n", 9600)
	decoder := sensor.NewTemperatureDecoder(2)
	log := common.NewLoggingClient("test", "error")

	var mu sync.Mutex
	var frames []models.TelemetryFrame
	cb := func(f models.TelemetryFrame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}

	d := New("temp0", mock, decoder, cb, log, fixedClock)
	require.NoError(t, d.Open(context.Background()))
	defer d.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) > 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	frame := frames[0]
	mu.Unlock()

	assert.Equal(t, "temp0", frame.Name)
	assert.Equal(t, models.OK, frame.Response)
	assert.Equal(t, 12345.0, frame.TAI)
	require.Len(t, frame.Values, 2)
	assert.InDelta(t, 21.1234, frame.Values[0], 1e-6)
	assert.InDelta(t, 21.1220, frame.Values[1], 1e-6)
}

func TestDeviceOpenTwiceIsNoop(t *testing.T) {
	mock := transport.NewMock("", 9600)
	decoder := sensor.NewTemperatureDecoder(2)
	log := common.NewLoggingClient("test", "error")
	d := New("temp0", mock, decoder, func(models.TelemetryFrame) {}, log, fixedClock)

	require.NoError(t, d.Open(context.Background()))
	defer d.Close()
	require.NoError(t, d.Open(context.Background()))
	assert.Equal(t, Running, d.State())
}

func TestDeviceCloseIsIdempotent(t *testing.T) {
	mock := transport.NewMock("", 9600)
	decoder := sensor.NewTemperatureDecoder(2)
	log := common.NewLoggingClient("test", "error")
	d := New("temp0", mock, decoder, func(models.TelemetryFrame) {}, log, fixedClock)

	require.NoError(t, d.Open(context.Background()))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, Closed, d.State())
}

func TestDeviceReadErrorEmitsNaNFrame(t *testing.T) {
	mock := transport.NewMock("", 9600)
	mock.ReadGeneratesError = true
	decoder := sensor.NewTemperatureDecoder(2)
	log := common.NewLoggingClient("test", "error")

	var mu sync.Mutex
	var frames []models.TelemetryFrame
	cb := func(f models.TelemetryFrame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}

	d := New("temp0", mock, decoder, cb, log, fixedClock)
	d.ReconnectSleep = 5 * time.Millisecond
	require.NoError(t, d.Open(context.Background()))
	defer d.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) > 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	frame := frames[0]
	mu.Unlock()

	assert.Equal(t, models.DeviceReadError, frame.Response)
	require.Len(t, frame.Values, 2)
}
