// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/internal/sensor"
	"github.com/lsst-ts/envsensors-controller-go/internal/transport"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// sensorDefaultBaud holds the per-sensor-type baud rate defaults applied
// when a DeviceConfig entry omits baud_rate.
var sensorDefaultBaud = map[models.SensorType]int{
	models.SensorTemperature: 19200,
	models.SensorHX85A:       19200,
	models.SensorHX85BA:      19200,
	models.SensorWind:        19200,
	models.SensorSPS30:       115200,
	models.SensorCSAT3B:      115200,
}

// newDecoder builds the sensor decoder matching cfg.SensorType.
func newDecoder(cfg models.DeviceConfig, log common.LoggingClient) (models.Decoder, error) {
	switch cfg.SensorType {
	case models.SensorTemperature:
		return sensor.NewTemperatureDecoder(cfg.Channels), nil
	case models.SensorHX85A:
		return sensor.NewHX85A(), nil
	case models.SensorHX85BA:
		return sensor.NewHX85BA(), nil
	case models.SensorWind:
		return sensor.NewWindDecoder(log), nil
	case models.SensorSPS30:
		return sensor.NewSPS30Decoder(), nil
	case models.SensorCSAT3B:
		return sensor.NewCSAT3BDecoder(), nil
	default:
		return nil, errors.Errorf("no decoder for sensor_type %s", cfg.SensorType)
	}
}

// newTransport builds the transport matching cfg.DeviceType, or the Mock
// transport in simulation mode regardless of DeviceType. An SPS30 sensor
// always wraps its inner transport in the binary SHDLC handshake
// (internal/transport.SPS30).
func newTransport(cfg models.DeviceConfig, simulation bool, log common.LoggingClient) (models.Transport, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = sensorDefaultBaud[cfg.SensorType]
	}

	var inner models.Transport
	switch {
	case simulation:
		inner = transport.NewMock(simulationReply(cfg), baud)
	case cfg.DeviceType == models.DeviceFTDI:
		inner = transport.NewFTDI(cfg.FTDIID, baud)
	case cfg.DeviceType == models.DeviceSerial:
		inner = transport.NewSerial(cfg.SerialPort, baud)
	default:
		return nil, errors.Errorf("device %s: could not build a %s transport; check the configuration", cfg.Name, cfg.DeviceType)
	}

	if cfg.SensorType == models.SensorSPS30 {
		return transport.NewSPS30(inner, log), nil
	}
	return inner, nil
}

// simulationReply builds the canned line --simulation hands cfg's device.
// Temperature is the one sensor_type whose frame width is deployment-
// specific (cfg.Channels), so it gets a reply sized to match; every other
// sensor_type keeps transport.NewMock's built-in default.
func simulationReply(cfg models.DeviceConfig) string {
	if cfg.SensorType != models.SensorTemperature {
		return ""
	}
	return transport.TemperatureReply(cfg.Channels, 0)
}
