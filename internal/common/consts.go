// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package common

import "time"

const (
	APIv1Prefix  = "/api/v1"
	APIPingRoute = APIv1Prefix + "/ping"

	ConfigDirectory = "./res"
	ConfigFileName  = "configuration.toml"

	// DefaultTerminator and DefaultDelimiter are the sensor decoder
	// defaults; most decoders use them as-is, HX85A and HX85BA override
	// the terminator.
	DefaultTerminator = "\r\n"
	DefaultDelimiter  = ","
	DefaultCharset    = "ASCII"

	// DisconnectedSentinel is the string a sensor sends in place of a
	// channel reading when that channel is disconnected.
	DisconnectedSentinel = "9999.9990"

	// SPS30ReadSleep is the minimum interval the SPS30 reader waits
	// between consecutive READ_MEASURED_VALUES commands.
	SPS30ReadSleep = 900 * time.Millisecond

	// MaxNumStartStopAttempts bounds retries of the SPS30 start/stop
	// handshake performed on open.
	MaxNumStartStopAttempts = 5

	// MaxNumReadAttempts bounds retries of a single SPS30 measurement
	// read when the sensor keeps returning the EMPTY reply.
	MaxNumReadAttempts = 60

	// SPS30FrameLength is the length, in bytes, of a valid SPS30
	// measurement reply.
	SPS30FrameLength = 47
)

// ReadTimeout and ReconnectSleep are package-level variables rather than
// constants because internal/config.ServerConfig lets the on-disk
// configuration.toml override these defaults at process startup
// (internal/config.Apply), before the session starts accepting clients.
var (
	// ReadTimeout bounds a single readline() attempt by a Device.
	ReadTimeout = 10 * time.Second

	// ReconnectSleep is the fixed backoff a Device waits after a
	// transport failure before it re-opens on the next loop iteration.
	ReconnectSleep = 60 * time.Second
)
