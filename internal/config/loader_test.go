// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := loadConfigFromFile("./test")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.Simulation)
	assert.Equal(t, 5, cfg.ReadTimeoutSeconds)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ReconnectSleep)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadConfigFromFile("./nonexistent")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyInstallsPackageLevelTimeouts(t *testing.T) {
	savedRead, savedReconnect := common.ReadTimeout, common.ReconnectSleep
	defer func() {
		common.ReadTimeout, common.ReconnectSleep = savedRead, savedReconnect
	}()

	Apply(ServerConfig{ReadTimeout: 3 * time.Second, ReconnectSleep: 7 * time.Second})

	assert.Equal(t, 3*time.Second, common.ReadTimeout)
	assert.Equal(t, 7*time.Second, common.ReconnectSleep)
}
