// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// MockReply is the fixed line a Mock transport replays one byte at a time
// unless a different reply is configured.
const MockReply = "C01=0022.1443,C02=0023.0320\r\n"

// TemperatureReply builds a canned "C00=…,C01=…,…" temperature frame for
// channels channels, the shape the --simulation CLI flag hands every
// configured Temperature device. When disconnectedChannel is >= 1, that
// 1-indexed channel's value is replaced with the disconnected sentinel
// instead of a reading: one channel permanently reporting NaN without
// needing a distinct sentinel string baked into a literal.
func TemperatureReply(channels int, disconnectedChannel int) string {
	fields := make([]string, channels)
	for i := 0; i < channels; i++ {
		value := fmt.Sprintf("%09.4f", 20.0+float64(i))
		if i+1 == disconnectedChannel {
			value = common.DisconnectedSentinel
		}
		fields[i] = fmt.Sprintf("C%02d=%s", i, value)
	}
	return strings.Join(fields, common.DefaultDelimiter) + common.DefaultTerminator
}

// mockTimeoutSleep is how long a Mock transport configured with
// GenerateTimeout blocks a single Read, long enough to exceed
// common.ReadTimeout and exercise the device loop's timeout path.
const mockTimeoutSleep = 30 * time.Second

// Mock is an in-memory models.Transport used by tests and by devices
// configured for simulation mode. It replays its reply byte by byte,
// looping back to the start, and can be configured to misbehave in three
// ways: every Read can return an error, every Read can block long enough
// to simulate a stalled instrument, and the reply can be something other
// than the single terminated line the real instruments send.
type Mock struct {
	ReadGeneratesError bool
	GenerateTimeout    bool

	reply     string
	charCount int
	open      bool
	baud      int
}

// NewMock builds a Mock transport. reply defaults to MockReply when empty.
func NewMock(reply string, baud int) *Mock {
	if reply == "" {
		reply = MockReply
	}
	return &Mock{reply: reply, baud: baud}
}

func (m *Mock) Open(ctx context.Context) error {
	m.open = true
	m.charCount = 0
	return nil
}

func (m *Mock) Close() error {
	m.open = false
	return nil
}

func (m *Mock) Flush() error { return nil }

func (m *Mock) IsOpen() bool { return m.open }

func (m *Mock) Baud() int { return m.baud }

func (m *Mock) Write(ctx context.Context, data []byte) error { return nil }

// Read returns one byte of the configured reply per call, matching the
// original fixture's single-byte reads, so the caller's line-assembly
// logic (internal/device) is exercised the same way it is against a real
// character device.
func (m *Mock) Read(ctx context.Context) ([]byte, error) {
	if !m.open {
		return nil, errors.New("mock transport is not open")
	}
	if m.ReadGeneratesError {
		return nil, errors.New("mock transport raising a read error on purpose")
	}
	if m.GenerateTimeout {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(mockTimeoutSleep):
		}
	}

	if m.charCount >= len(m.reply) {
		m.charCount = 0
	}
	b := m.reply[m.charCount]
	m.charCount++
	return []byte{b}, nil
}
