// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

var supportedSensorTypes = map[models.SensorType]bool{
	models.SensorTemperature: true,
	models.SensorHX85A:       true,
	models.SensorHX85BA:      true,
	models.SensorWind:        true,
	models.SensorSPS30:       true,
	models.SensorCSAT3B:      true,
}

var supportedDeviceTypes = map[models.DeviceType]bool{
	models.DeviceFTDI:   true,
	models.DeviceSerial: true,
}

// validateConfiguration checks a wire Configuration: a non-empty devices
// list, required name/device_type/sensor_type fields, channels for
// Temperature, the transport-specific identifier, supported type values,
// and unique names. Any failure is reported as a single error; the caller
// maps it to models.InvalidConfiguration without inspecting its text.
func validateConfiguration(cfg models.Configuration) error {
	if len(cfg.Devices) == 0 {
		return errors.New("configuration must have a non-empty devices list")
	}

	seen := make(map[string]bool, len(cfg.Devices))
	for i, d := range cfg.Devices {
		if d.Name == "" {
			return errors.Errorf("device %d is missing a name", i)
		}
		if d.DeviceType == "" {
			return errors.Errorf("device %s is missing device_type", d.Name)
		}
		if d.SensorType == "" {
			return errors.Errorf("device %s is missing sensor_type", d.Name)
		}
		if d.SensorType == models.SensorTemperature && d.Channels < 1 {
			return errors.Errorf("device %s has sensor_type Temperature but channels < 1", d.Name)
		}

		if !supportedDeviceTypes[d.DeviceType] {
			return errors.Errorf("device %s has unsupported device_type %s", d.Name, d.DeviceType)
		}
		if !supportedSensorTypes[d.SensorType] {
			return errors.Errorf("device %s has unsupported sensor_type %s", d.Name, d.SensorType)
		}

		if d.DeviceType == models.DeviceFTDI && d.FTDIID == "" {
			return errors.Errorf("device %s has device_type FTDI but no ftdi_id", d.Name)
		}
		if d.DeviceType == models.DeviceSerial && d.SerialPort == "" {
			return errors.Errorf("device %s has device_type Serial but no serial_port", d.Name)
		}

		if seen[d.Name] {
			return errors.Errorf("duplicate device name %s", d.Name)
		}
		seen[d.Name] = true
	}

	return nil
}
