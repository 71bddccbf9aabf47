// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package device implements the per-instrument acquisition loop: one
// goroutine per configured instrument, each owning exactly one
// models.Transport and one models.Decoder, driving open, read, decode and
// emit until closed, with bounded read timeouts and reconnect backoff.
package device

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// RunState is the per-Device lifecycle state.
type RunState int

const (
	Closed RunState = iota
	Opening
	Running
	Failing
	Closing
)

// Callback receives one fully composed telemetry frame. The command
// handler supplies this; Device never talks to the session directly.
type Callback func(models.TelemetryFrame)

// Clock returns the current TAI timestamp, in seconds, for a telemetry
// frame. Production code uses common.NowTAI; tests substitute a fixed
// value so assertions do not depend on wall-clock time.
type Clock func() float64

// Device owns one transport, one decoder, and the goroutine that drives
// them: exactly one acquisition goroutine per Device while Running, with
// the transport handle owned exclusively by the Device.
type Device struct {
	Name     string
	Decoder  models.Decoder
	log      common.LoggingClient
	clock    Clock
	callback Callback

	// ReconnectSleep is the backoff handleReadlineError waits before
	// re-opening the transport after a read error. Defaults to
	// common.ReconnectSleep; tests shrink it so they don't block for a
	// full minute.
	ReconnectSleep time.Duration

	transport models.Transport

	mu       sync.Mutex
	state    RunState
	cancel   context.CancelFunc
	done     chan struct{}
	lastRead time.Time
}

// New builds a Device. clock defaults to common.NowTAI when nil.
func New(name string, transport models.Transport, decoder models.Decoder, callback Callback, log common.LoggingClient, clock Clock) *Device {
	if clock == nil {
		clock = common.NowTAI
	}
	return &Device{
		Name:           name,
		Decoder:        decoder,
		transport:      transport,
		callback:       callback,
		log:            log,
		clock:          clock,
		ReconnectSleep: common.ReconnectSleep,
		state:          Closed,
	}
}

// Open opens the transport and spawns the acquisition goroutine. Calling
// Open twice on an already-open Device is a no-op logged as a warning.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	if d.state == Running || d.state == Opening {
		d.mu.Unlock()
		d.log.Warn("device " + d.Name + " is already open, ignoring Open")
		return nil
	}
	d.state = Opening
	d.mu.Unlock()

	if err := d.transport.Open(ctx); err != nil {
		d.mu.Lock()
		d.state = Failing
		d.mu.Unlock()
		return errors.Wrapf(err, "opening transport for device %s", d.Name)
	}
	if err := d.transport.Flush(); err != nil {
		d.log.Warn("device " + d.Name + " failed to flush after open: " + err.Error())
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancel = cancel
	d.done = make(chan struct{})
	d.state = Running
	d.mu.Unlock()

	go d.run(loopCtx)
	return nil
}

// Close cancels the acquisition goroutine and performs basic_close. Close
// is idempotent: calling it on an already-closed Device is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.state == Closed || d.state == Closing {
		d.mu.Unlock()
		return nil
	}
	d.state = Closing
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	err := d.transport.Close()

	d.mu.Lock()
	d.state = Closed
	d.mu.Unlock()

	return errors.Wrapf(err, "closing transport for device %s", d.Name)
}

// State reports the Device's current RunState.
func (d *Device) State() RunState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// run is the acquisition loop body: record timestamp, readline within
// ReadTimeout, decode, emit, repeat until ctx is cancelled.
func (d *Device) run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tai := d.clock()

		readCtx, cancelRead := context.WithTimeout(ctx, common.ReadTimeout)
		line, err := d.readline(readCtx)
		cancelRead()

		response := models.OK
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled, not failed: the acquisition loop terminates
				// without scheduling a reconnect.
				return
			}

			response = models.DeviceReadError
			line = d.Decoder.Terminator()
			d.handleReadlineError(ctx, err)
		}

		values, decodeErr := d.Decoder.ExtractTelemetry(line)
		if decodeErr != nil {
			response = models.DeviceReadError
			values = nanValues(d.Decoder.Length())
		}

		d.callback(models.TelemetryFrame{
			Name:     d.Name,
			TAI:      tai,
			Response: response,
			Values:   values,
		})

		d.mu.Lock()
		if !d.lastRead.IsZero() && time.Since(d.lastRead) > common.ReadTimeout {
			d.log.Warn("device " + d.Name + " read-to-read interval exceeded the read timeout")
		}
		d.lastRead = time.Now()
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// handleReadlineError logs the failure, closes the transport, sleeps
// ReconnectSleep, and re-opens so the next loop iteration reads from a
// fresh connection.
func (d *Device) handleReadlineError(ctx context.Context, err error) {
	d.log.Error("device " + d.Name + " read failed, reconnecting: " + err.Error())
	if closeErr := d.transport.Close(); closeErr != nil {
		d.log.Warn("device " + d.Name + " failed to close after read error: " + closeErr.Error())
	}

	select {
	case <-time.After(d.ReconnectSleep):
	case <-ctx.Done():
		return
	}

	if openErr := d.transport.Open(ctx); openErr != nil {
		d.log.Error("device " + d.Name + " reconnect failed: " + openErr.Error())
	}
}

// readline reads bytes until the decoder's terminator is observed,
// tolerating an optional stray NUL byte inside the terminator sequence,
// and returns the decoded string including terminator.
func (d *Device) readline(ctx context.Context) (string, error) {
	terminator := d.Decoder.Terminator()
	var line strings.Builder

	for {
		if matchesTerminator(line.String(), terminator) {
			return line.String(), nil
		}

		chunk, err := d.transport.Read(ctx)
		if err != nil {
			return line.String(), err
		}
		if len(chunk) == 0 {
			select {
			case <-ctx.Done():
				return line.String(), ctx.Err()
			default:
				continue
			}
		}
		for _, b := range chunk {
			if b == 0x00 {
				continue
			}
			line.WriteByte(b)
		}
	}
}

// matchesTerminator reports whether line ends with terminator, tolerating
// one stray NUL immediately before it having already been stripped by the
// caller (readline never appends NUL bytes to line in the first place).
func matchesTerminator(line, terminator string) bool {
	return terminator != "" && strings.HasSuffix(line, terminator)
}

func nanValues(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = common.NaN
	}
	return v
}
