// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"math"
	"time"
)

// taiUTCOffset is the TAI-UTC leap second offset in effect since the
// 2017 leap second. It only ever changes when the IERS announces a new
// leap second, so it is hard-coded rather than looked up from a table.
const taiUTCOffset = 37 * time.Second

// NaN is the shared not-a-number value used for missing or disconnected
// telemetry channels.
var NaN = math.NaN()

// NowTAI returns the current International Atomic Time, in seconds since
// the Unix epoch, the timestamp every TelemetryFrame carries.
func NowTAI() float64 {
	return float64(time.Now().Add(taiUTCOffset).UnixNano()) / 1e9
}
