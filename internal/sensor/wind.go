// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

const (
	startCharacter = "\x02"
	endCharacter   = "\x03"
	unitIdentifier = "Q"
	windspeedUnit  = "M"
	goodStatus     = "00"

	defaultSpeedVal     = common.DisconnectedSentinel
	defaultDirectionVal = "999"
)

// windLineRe matches the Gill Polar-Continuous frame:
//
//	<STX> Q , ddd , sss.ss , M , ss , <ETX> cc <CR><LF>
//
// with the terminator already stripped by the caller. Direction may be
// empty (the low-wind case); speed may carry extra digits when it is the
// disconnected sentinel "9999.9990" rather than the usual "sss.ss".
var windLineRe = regexp.MustCompile(
	`^\x02Q,(\d{0,3}),(\d+\.\d+),M,(\d{2}),\x03([0-9A-Fa-f]{2})$`)

// WindDecoder decodes an ultrasonic anemometer's speed/direction frame.
type WindDecoder struct {
	log       common.LoggingClient
	delimiter string
}

// NewWindDecoder builds a WindDecoder. log is used to report checksum
// failures and non-"00" status words without aborting the loop.
func NewWindDecoder(log common.LoggingClient) *WindDecoder {
	return &WindDecoder{log: log, delimiter: common.DefaultDelimiter}
}

func (w *WindDecoder) Terminator() string { return common.DefaultTerminator }
func (w *WindDecoder) Delimiter() string  { return w.delimiter }
func (w *WindDecoder) Length() int        { return 2 }

// ExtractTelemetry returns [speed, direction]. A line that is not the
// empty terminator and does not match the expected frame is a decode
// error. A matching line with a bad checksum returns [NaN, NaN] rather
// than raising, and is logged.
func (w *WindDecoder) ExtractTelemetry(line string) ([]float64, error) {
	line = strings.TrimSuffix(line, common.DefaultTerminator)
	if line == "" {
		return []float64{math.NaN(), math.NaN()}, nil
	}

	m := windLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, errors.Errorf("wind sensor line %q does not match the expected frame", line)
	}
	direction, speedStr, status, checksumHex := m[1], m[2], m[3], m[4]

	start := strings.IndexByte(line, '\x02')
	end := strings.IndexByte(line, '\x03')
	body := line[start+1 : end]
	var checksum byte
	for i := 0; i < len(body); i++ {
		checksum ^= body[i]
	}

	wantChecksum, err := strconv.ParseUint(checksumHex, 16, 8)
	if err != nil {
		return nil, errors.Wrapf(err, "wind sensor checksum %q is not valid hex", checksumHex)
	}
	if checksum != byte(wantChecksum) {
		if w.log != nil {
			w.log.Warn("wind sensor checksum mismatch, discarding frame")
		}
		return []float64{math.NaN(), math.NaN()}, nil
	}

	if status != goodStatus && w.log != nil {
		w.log.Warn("wind sensor reported non-OK status " + status)
	}

	speed := math.NaN()
	if speedStr != defaultSpeedVal {
		if v, err := strconv.ParseFloat(speedStr, 64); err == nil {
			speed = v
		}
	}

	dir := math.NaN()
	if direction != "" && direction != defaultDirectionVal {
		if v, err := strconv.ParseFloat(direction, 64); err == nil {
			dir = v
		}
	}

	return []float64{speed, dir}, nil
}
