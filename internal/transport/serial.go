// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	serial "github.com/tarm/serial"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// readChunk is the buffer size used for each underlying Read(2) call.
// Sensors in this controller all emit short, terminator-delimited ASCII
// lines, so a generous fixed buffer is simpler than growing one.
const readChunk = 256

// Serial is a models.Transport backed by a POSIX tty device (e.g.
// /dev/ttyUSB0). The blocking read runs on its own goroutine and hands
// bytes back to the caller over a channel, so a stalled instrument never
// blocks the acquisition loop's context-aware Read.
type Serial struct {
	portName string
	baud     int

	mu   sync.Mutex
	port *serial.Port

	readCh chan []byte
	errCh  chan error
	stopCh chan struct{}
}

// NewSerial builds a Serial transport for portName at baud. Open must be
// called before Read/Write/Flush are usable.
func NewSerial(portName string, baud int) *Serial {
	return &Serial{portName: portName, baud: baud}
}

func (s *Serial) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}

	cfg := &serial.Config{
		Name:        s.portName,
		Baud:        s.baud,
		ReadTimeout: common.ReadTimeout,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return errors.Wrapf(err, "opening serial port %s at %d baud", s.portName, s.baud)
	}
	s.port = port

	s.readCh = make(chan []byte, 16)
	s.errCh = make(chan error, 1)
	s.stopCh = make(chan struct{})
	go s.readLoop()

	return nil
}

// readLoop is the background goroutine that owns the blocking Read(2)
// call, so a stalled instrument never blocks the device acquisition
// loop's context-aware Read.
func (s *Serial) readLoop() {
	buf := make([]byte, readChunk)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil {
			select {
			case s.errCh <- err:
			case <-s.stopCh:
			}
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case s.readCh <- chunk:
		case <-s.stopCh:
			return
		}
	}
}

func (s *Serial) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	open := s.port != nil
	s.mu.Unlock()
	if !open {
		return nil, errors.New("serial transport is not open")
	}

	select {
	case chunk := <-s.readCh:
		return chunk, nil
	case err := <-s.errCh:
		return nil, errors.Wrap(err, "serial read failed")
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(common.ReadTimeout):
		return nil, nil
	}
}

func (s *Serial) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return errors.New("serial transport is not open")
	}
	_, err := s.port.Write(data)
	return errors.Wrap(err, "serial write failed")
}

func (s *Serial) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	return s.port.Flush()
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	close(s.stopCh)
	err := s.port.Close()
	s.port = nil
	return errors.Wrap(err, "closing serial port")
}

func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func (s *Serial) Baud() int { return s.baud }
