// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package handler implements the supervisor command state machine:
// configuration validation, the Unconfigured/Configured/Running
// transitions, the device factory, and the telemetry fan-in callback
// that wraps a Device's frames for the session to write.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/internal/device"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// State is the command handler's own state, distinct from any one
// Device's RunState.
type State int

const (
	Unconfigured State = iota
	Configured
	Running
)

var stateNames = map[State]string{
	Unconfigured: "Unconfigured",
	Configured:   "Configured",
	Running:      "Running",
}

// TelemetryWriter is how the handler forwards telemetry frames to the
// session; the session supplies the concrete implementation (internal/session).
type TelemetryWriter func(models.TelemetryReply)

// Handler owns the current Configuration, the live Device set, and the
// command state machine. It never touches the TCP socket directly; it is
// driven by whatever parses the wire JSON (internal/session) and writes
// back through TelemetryWriter and the CommandReply it returns.
type Handler struct {
	log        common.LoggingClient
	simulation bool
	write      TelemetryWriter

	mu       sync.Mutex
	state    State
	config   models.Configuration
	devices  map[string]*device.Device
	sequence uint64
}

// New builds a Handler. simulation forces every Device's transport to
// internal/transport.Mock regardless of configured device_type, matching
// the --simulation CLI flag.
func New(simulation bool, write TelemetryWriter, log common.LoggingClient) *Handler {
	return &Handler{
		log:        log,
		simulation: simulation,
		write:      write,
		state:      Unconfigured,
		devices:    make(map[string]*device.Device),
	}
}

// Process dispatches one parsed Command and returns the single reply
// line the session must write back. shouldExit is true only for an
// accepted "exit" command, telling the session to close its listening
// socket and terminate after replying. Every inbound command is assigned
// a monotonic sequence number purely to correlate its log lines with its
// reply; the number is never put on the wire.
func (h *Handler) Process(cmd models.Command) (reply models.CommandReply, shouldExit bool) {
	seq := h.nextSequence()
	h.log.Debug(fmt.Sprintf("command #%d: %s", seq, cmd.Command))
	defer func() {
		h.log.Debug(fmt.Sprintf("command #%d: replied %s", seq, reply.Response))
	}()

	switch cmd.Command {
	case models.CommandConfigure:
		return h.handleConfigure(cmd.Parameters), false
	case models.CommandStart:
		return h.handleStart(), false
	case models.CommandStop:
		return h.handleStop(), false
	case models.CommandDisconnect:
		return h.handleTeardown(), false
	case models.CommandExit:
		return h.handleTeardown(), true
	default:
		return h.reply(common.ConfigurationError("received unknown command " + string(cmd.Command))), false
	}
}

func (h *Handler) handleConfigure(raw json.RawMessage) models.CommandReply {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Running {
		return h.reply(common.StateError(models.AlreadyStarted, "configure: already started"))
	}

	var params models.ConfigureParameters
	if err := json.Unmarshal(raw, &params); err != nil {
		return h.reply(common.WrapCommandError(models.InvalidConfiguration, err, "configure: could not parse parameters"))
	}

	// The configuration object must carry exactly one top-level key,
	// "devices"; the tagged struct above would silently drop anything
	// else, so the raw shape is checked separately.
	var shape struct {
		Configuration map[string]json.RawMessage `json:"configuration"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil || len(shape.Configuration) != 1 {
		return h.reply(common.ConfigurationError("configure: configuration must have exactly one key, devices"))
	}
	if _, ok := shape.Configuration["devices"]; !ok {
		return h.reply(common.ConfigurationError("configure: configuration is missing the devices list"))
	}

	if err := validateConfiguration(params.Configuration); err != nil {
		return h.reply(common.WrapCommandError(models.InvalidConfiguration, err, "configure: invalid configuration"))
	}

	h.config = params.Configuration
	h.state = Configured
	return h.reply(nil)
}

func (h *Handler) handleStart() models.CommandReply {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case Unconfigured:
		return h.reply(common.StateError(models.NotConfigured, "start: not configured"))
	case Running:
		return h.reply(common.StateError(models.AlreadyStarted, "start: already started"))
	}

	if err := h.openAllDevices(); err != nil {
		return h.reply(common.TransportOpenError(err, "start: opening devices"))
	}

	h.state = Running
	return h.reply(nil)
}

// reply turns a *common.CommandError into the single wire CommandReply
// every accepted command emits, logging the error's cause (if any) at the
// severity its response code warrants. A nil err reports OK. Callers hold
// h.mu for the duration of the state transition that produced err, so
// logging happens under the lock too; that's fine, the logger never calls
// back into the handler.
func (h *Handler) reply(err *common.CommandError) models.CommandReply {
	if err == nil {
		return models.CommandReply{Response: models.OK}
	}
	if err.Code == models.DeviceReadError {
		h.log.Error(err.Error())
	} else {
		h.log.Warn(err.Error())
	}
	return models.CommandReply{Response: err.Code}
}

// openAllDevices builds and opens one Device per configured entry. Any
// failure tears down every Device opened so far, so a failed start never
// leaves a partially running device set.
func (h *Handler) openAllDevices() error {
	opened := make([]*device.Device, 0, len(h.config.Devices))

	for _, cfg := range h.config.Devices {
		d, err := h.buildDevice(cfg)
		if err != nil {
			closeAll(opened)
			return errors.Wrapf(err, "building device %s", cfg.Name)
		}
		if err := d.Open(context.Background()); err != nil {
			closeAll(opened)
			return errors.Wrapf(err, "opening device %s", cfg.Name)
		}
		opened = append(opened, d)
		h.devices[cfg.Name] = d
	}

	return nil
}

func (h *Handler) buildDevice(cfg models.DeviceConfig) (*device.Device, error) {
	decoder, err := newDecoder(cfg, h.log)
	if err != nil {
		return nil, err
	}
	tr, err := newTransport(cfg, h.simulation, h.log)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	callback := func(frame models.TelemetryFrame) {
		h.write(models.TelemetryReply{Telemetry: frame})
	}
	return device.New(name, tr, decoder, callback, h.log, nil), nil
}

func closeAll(devices []*device.Device) {
	for _, d := range devices {
		_ = d.Close()
	}
}

func (h *Handler) handleStop() models.CommandReply {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Running {
		return h.reply(common.StateError(models.NotStarted, "stop: not started"))
	}

	for name, d := range h.devices {
		if err := d.Close(); err != nil {
			h.log.Warn("stop: closing device " + name + ": " + err.Error())
		}
	}
	h.devices = make(map[string]*device.Device)
	h.state = Configured
	return h.reply(nil)
}

// handleTeardown implements disconnect and exit: unlike stop it is not
// guarded by the Running state, since both commands mean "ensure nothing
// is running" rather than "transition out of Running". It always replies
// OK.
func (h *Handler) handleTeardown() models.CommandReply {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, d := range h.devices {
		if err := d.Close(); err != nil {
			h.log.Warn("teardown: closing device " + name + ": " + err.Error())
		}
	}
	h.devices = make(map[string]*device.Device)
	if h.state == Running {
		h.state = Configured
	}
	return h.reply(nil)
}

// nextSequence returns the next monotonic command sequence number, used
// only to correlate a command's log lines with its reply.
func (h *Handler) nextSequence() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sequence++
	return h.sequence
}

// State reports the handler's current command state machine state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// StateName implements internal/diagnostics.StateReporter.
func (h *Handler) StateName() string {
	return stateNames[h.State()]
}
