// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io/ioutil"
	"path"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// ServerConfig holds the local startup settings for the controller
// process: where to listen, whether to run in simulation mode, and the
// default timeouts a Device falls back to when nothing overrides them.
// This is distinct from the wire Configuration (the "devices" list),
// which never touches disk: it arrives over the TCP session.
type ServerConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Simulation bool   `toml:"simulation"`
	LogLevel   string `toml:"log_level"`

	ReadTimeoutSeconds    int `toml:"read_timeout_seconds"`
	ReconnectSleepSeconds int `toml:"reconnect_sleep_seconds"`

	ReadTimeout    time.Duration `toml:"-"`
	ReconnectSleep time.Duration `toml:"-"`
}

// Default returns the built-in defaults applied before a config file (if
// any) overrides them.
func Default() ServerConfig {
	return ServerConfig{
		Host:                  "0.0.0.0",
		Port:                  0,
		Simulation:            false,
		LogLevel:              "info",
		ReadTimeoutSeconds:    int(common.ReadTimeout / time.Second),
		ReconnectSleepSeconds: int(common.ReconnectSleep / time.Second),
		ReadTimeout:           common.ReadTimeout,
		ReconnectSleep:        common.ReconnectSleep,
	}
}

// LoadConfig loads the local configuration file based upon the specified
// confDir and returns the ServerConfig holding all local configuration
// settings for the controller. An empty confDir means
// common.ConfigDirectory. A missing file is not an error: the built-in
// defaults are returned as-is.
func LoadConfig(confDir string) (ServerConfig, error) {
	return loadConfigFromFile(confDir)
}

func loadConfigFromFile(confDir string) (cfg ServerConfig, err error) {
	cfg = Default()

	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}

	p := path.Join(confDir, common.ConfigFileName)
	absPath, err := filepath.Abs(p)
	if err != nil {
		return cfg, fmt.Errorf("could not create absolute path to load configuration: %s; %v", p, err)
	}

	contents, err := ioutil.ReadFile(absPath)
	if err != nil {
		return cfg, nil
	}

	// As the toml package can panic if TOML is invalid, or elements are
	// found that don't match members of the given struct, use a
	// deferred func to recover from the panic and output a useful
	// error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not load configuration file; invalid TOML (%s)", p)
		}
	}()

	if err := toml.Unmarshal(contents, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse configuration file (%s): %v", p, err)
	}

	if cfg.ReadTimeoutSeconds > 0 {
		cfg.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	}
	if cfg.ReconnectSleepSeconds > 0 {
		cfg.ReconnectSleep = time.Duration(cfg.ReconnectSleepSeconds) * time.Second
	}

	return cfg, nil
}

// Apply installs cfg's read timeout and reconnect backoff as the
// package-level defaults every Device and transport consults
// (common.ReadTimeout, common.ReconnectSleep). Callers run this once,
// before the session starts accepting clients.
func Apply(cfg ServerConfig) {
	common.ReadTimeout = cfg.ReadTimeout
	common.ReconnectSleep = cfg.ReconnectSleep
}
