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
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSHDLC is a minimal in-memory models.Transport that hands out its
// queued replies in order, whatever command was written, and the EMPTY
// reply once the queue runs out, so SPS30's handshake and framing can be
// tested without a real device.
type fakeSHDLC struct {
	open       bool
	nextReply  [][]byte
	writeCount int
}

func (f *fakeSHDLC) Open(ctx context.Context) error { f.open = true; return nil }
func (f *fakeSHDLC) Close() error                   { f.open = false; return nil }
func (f *fakeSHDLC) Flush() error                   { return nil }
func (f *fakeSHDLC) IsOpen() bool                   { return f.open }
func (f *fakeSHDLC) Baud() int                      { return 115200 }

func (f *fakeSHDLC) Write(ctx context.Context, data []byte) error {
	f.writeCount++
	return nil
}

func (f *fakeSHDLC) Read(ctx context.Context) ([]byte, error) {
	if len(f.nextReply) == 0 {
		return sps30EmptyReply, nil
	}
	reply := f.nextReply[0]
	f.nextReply = f.nextReply[1:]
	return reply, nil
}

func buildMeasurementFrame(values [10]float32) []byte {
	data := make([]byte, 40)
	for i, v := range values {
		binary.BigEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(v))
	}
	body := append([]byte{sps30Address, sps30CmdReadValues, 0x00, byte(len(data))}, data...)
	sum := 0
	for _, b := range body {
		sum += int(b)
	}
	checksum := byte(255 - (sum % 256))
	frame := append([]byte{sps30FrameMarker}, body...)
	frame = append(frame, checksum, sps30FrameMarker)
	return frame
}

func TestSPS30OpenRunsStopStartHandshake(t *testing.T) {
	fake := &fakeSHDLC{nextReply: [][]byte{sps30EmptyReply, sps30EmptyReply}}
	s := NewSPS30(fake, nil)
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 2, fake.writeCount)
}

func TestSPS30ReadDecodesValidFrame(t *testing.T) {
	frame := buildMeasurementFrame([10]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	fake := &fakeSHDLC{nextReply: [][]byte{sps30EmptyReply, sps30EmptyReply, frame}}
	s := NewSPS30(fake, nil)
	require.NoError(t, s.Open(context.Background()))

	line, err := s.Read(context.Background())
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSuffix(string(line), "\r\n"), ",")
	require.Len(t, fields, 10)
	assert.Equal(t, "1", fields[0])
	assert.Equal(t, "10", fields[9])
}

func TestSPS30ReadWithBadChecksumYieldsNaNs(t *testing.T) {
	frame := buildMeasurementFrame([10]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	frame[len(frame)-2] ^= 0xFF // corrupt checksum byte
	fake := &fakeSHDLC{nextReply: [][]byte{sps30EmptyReply, sps30EmptyReply, frame}}
	s := NewSPS30(fake, nil)
	require.NoError(t, s.Open(context.Background()))

	line, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(line), "NaN")
}

func TestSPS30ReadRetriesOnEmptyReply(t *testing.T) {
	frame := buildMeasurementFrame([10]float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	fake := &fakeSHDLC{nextReply: [][]byte{
		sps30EmptyReply, sps30EmptyReply,
		sps30EmptyReply, sps30EmptyReply, frame,
	}}
	s := NewSPS30(fake, nil)
	require.NoError(t, s.Open(context.Background()))

	line, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(line), "1")
}
