// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package sensor

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// SPS30Decoder decodes the ten-channel particulate-matter reading the
// SPS30 transport (internal/transport) already converted to a uniform
// comma-separated text line. The binary SHDLC command/response handshake,
// checksum and length validation all happen inside the transport, so from
// this decoder's point of view an SPS30 line looks exactly like any other
// sensor's CSV line.
type SPS30Decoder struct{}

// NewSPS30Decoder builds the SPS30 decoder.
func NewSPS30Decoder() *SPS30Decoder { return &SPS30Decoder{} }

func (s *SPS30Decoder) Terminator() string { return common.DefaultTerminator }
func (s *SPS30Decoder) Delimiter() string  { return common.DefaultDelimiter }
func (s *SPS30Decoder) Length() int        { return 10 }

// ExtractTelemetry parses the ten comma-separated float fields (which may
// individually be the literal "NaN") the SPS30 transport hands up.
func (s *SPS30Decoder) ExtractTelemetry(line string) ([]float64, error) {
	line = strings.TrimSuffix(line, common.DefaultTerminator)
	if line == "" {
		return nanVector(10), nil
	}

	fields := strings.Split(line, common.DefaultDelimiter)
	if len(fields) != 10 {
		return nil, errors.Errorf("sps30 line has %d fields, want 10", len(fields))
	}

	values := make([]float64, 10)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sps30 field %q is not numeric", field)
		}
		values[i] = v
	}
	return values, nil
}
