// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// SHDLC command bytes for the three commands the Sensirion SPS30 reader
// needs: start measurement, stop measurement, read measured values.
const (
	sps30CmdStartMeasurement byte = 0x00
	sps30CmdStopMeasurement  byte = 0x01
	sps30CmdReadValues       byte = 0x03

	sps30FrameMarker byte = 0x7e
	sps30Address     byte = 0x00

	sps30MaxReadBytes = 100
)

// sps30EmptyReply is returned by the sensor when a measurement is
// requested before one is ready.
var sps30EmptyReply = []byte{0x7e, 0x00, 0x03, 0x00, 0x00, 0xfc, 0x7e}

// SPS30 wraps an inner byte-level models.Transport with the Sensirion
// SPS30's binary SHDLC command/response handshake, so that from the
// acquisition loop's point of view an SPS30 Read behaves exactly like
// every other sensor's Read: it blocks, then returns one terminated text
// line, here a comma-separated "v1,v2,…,v10" (or ten NaN fields on any
// decode failure), ready for sensor.SPS30Decoder.
type SPS30 struct {
	inner models.Transport
	log   common.LoggingClient

	lastRead time.Time
}

// NewSPS30 wraps inner. Open opens inner first if it is not already open.
func NewSPS30(inner models.Transport, log common.LoggingClient) *SPS30 {
	return &SPS30{inner: inner, log: log}
}

// Open starts measurement, retrying the stop/start sequence up to
// common.MaxNumStartStopAttempts before failing.
func (s *SPS30) Open(ctx context.Context) error {
	if !s.inner.IsOpen() {
		if err := s.inner.Open(ctx); err != nil {
			return errors.Wrap(err, "opening SPS30 inner transport")
		}
	}
	return s.startStopSequence(ctx)
}

func (s *SPS30) startStopSequence(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < common.MaxNumStartStopAttempts; attempt++ {
		if err := s.sendCommand(ctx, sps30CmdStopMeasurement, nil); err != nil {
			lastErr = err
			continue
		}
		// A STOP on an already-stopped sensor still replies; treated as
		// success for idempotence, so its reply is not validated here.
		if _, err := s.readFrame(ctx); err != nil {
			lastErr = err
			continue
		}

		time.Sleep(20 * time.Millisecond)

		if err := s.sendCommand(ctx, sps30CmdStartMeasurement, []byte{0x01, 0x03}); err != nil {
			lastErr = err
			continue
		}
		if _, err := s.readFrame(ctx); err != nil {
			lastErr = err
			continue
		}

		s.lastRead = time.Time{}
		return nil
	}
	return errors.Wrapf(lastErr, "SPS30 start/stop handshake failed after %d attempts", common.MaxNumStartStopAttempts)
}

func (s *SPS30) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), common.ReadTimeout)
	defer cancel()
	_ = s.sendCommand(ctx, sps30CmdStopMeasurement, nil)
	return s.inner.Close()
}

func (s *SPS30) Flush() error { return s.inner.Flush() }

func (s *SPS30) IsOpen() bool { return s.inner.IsOpen() }

func (s *SPS30) Baud() int { return s.inner.Baud() }

// Write is not used directly by the acquisition loop; SPS30 drives its
// own command writes internally.
func (s *SPS30) Write(ctx context.Context, data []byte) error {
	return s.inner.Write(ctx, data)
}

// Read throttles to common.SPS30ReadSleep since the previous Read,
// requests a measurement, and returns a uniform CSV text line of ten
// values. Any recoverable transport error triggers a stop/start recovery
// sequence rather than propagating.
func (s *SPS30) Read(ctx context.Context) ([]byte, error) {
	if !s.lastRead.IsZero() {
		if wait := common.SPS30ReadSleep - time.Since(s.lastRead); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	s.lastRead = time.Now()

	values, err := s.readMeasurement(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Warn("SPS30 read failed, recovering with stop/start: " + err.Error())
		}
		if recErr := s.startStopSequence(ctx); recErr != nil {
			return nil, errors.Wrap(recErr, "SPS30 recovery after read failure")
		}
		values = nanVector10()
	}

	return []byte(formatCSVLine(values) + common.DefaultTerminator), nil
}

func (s *SPS30) readMeasurement(ctx context.Context) ([]float64, error) {
	if err := s.sendCommand(ctx, sps30CmdReadValues, nil); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < common.MaxNumReadAttempts; attempt++ {
		frame, err := s.readFrame(ctx)
		if err != nil {
			return nil, err
		}
		if sameBytes(frame, sps30EmptyReply) {
			continue
		}
		return decodeMeasurementFrame(frame)
	}
	return nil, errors.Errorf("SPS30 returned EMPTY reply %d times in a row", common.MaxNumReadAttempts)
}

// decodeMeasurementFrame validates framing, address, checksum, and
// length, then unpacks the ten big-endian float32 channels. A checksum or
// length mismatch is not an error: the frame is discarded and ten NaN
// values are emitted in its place.
func decodeMeasurementFrame(frame []byte) ([]float64, error) {
	if len(frame) != common.SPS30FrameLength {
		return nanVector10(), nil
	}
	if frame[0] != sps30FrameMarker || frame[1] != sps30Address {
		return nanVector10(), nil
	}

	sum := 0
	for _, b := range frame[1 : len(frame)-2] {
		sum += int(b)
	}
	want := byte(255 - (sum % 256))
	got := frame[len(frame)-2]
	if want != got {
		return nanVector10(), nil
	}

	payload := frame[5 : 5+40]
	values := make([]float64, 10)
	for i := 0; i < 10; i++ {
		bits := binary.BigEndian.Uint32(payload[i*4 : i*4+4])
		v := float64(math.Float32frombits(bits))
		values[i] = math.Round(v*10) / 10
	}
	return values, nil
}

// sendCommand writes one SHDLC command frame: 7E 00 <cmd> <len> <data…> <csum> 7E.
func (s *SPS30) sendCommand(ctx context.Context, cmd byte, data []byte) error {
	body := append([]byte{sps30Address, cmd, byte(len(data))}, data...)
	sum := 0
	for _, b := range body {
		sum += int(b)
	}
	checksum := byte(255 - (sum % 256))

	frame := make([]byte, 0, len(body)+3)
	frame = append(frame, sps30FrameMarker)
	frame = append(frame, body...)
	frame = append(frame, checksum, sps30FrameMarker)

	return s.inner.Write(ctx, frame)
}

// readFrame collects bytes up to the framing 0x7E or sps30MaxReadBytes,
// whichever comes first.
func (s *SPS30) readFrame(ctx context.Context) ([]byte, error) {
	frame := make([]byte, 0, common.SPS30FrameLength)
	for len(frame) < sps30MaxReadBytes {
		chunk, err := s.inner.Read(ctx)
		if err != nil {
			return nil, err
		}
		for _, b := range chunk {
			frame = append(frame, b)
			if b == sps30FrameMarker && len(frame) > 1 {
				return frame, nil
			}
		}
	}
	return frame, nil
}

func nanVector10() []float64 {
	v := make([]float64, 10)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

func sameBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatCSVLine(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			parts[i] = "NaN"
		} else {
			parts[i] = fmt.Sprintf("%g", v)
		}
	}
	return strings.Join(parts, common.DefaultDelimiter)
}
