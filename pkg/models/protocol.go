// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// CommandKind enumerates the commands a supervisor may send on the
// session, one JSON object per line, terminated by "\r\n".
type CommandKind string

const (
	CommandConfigure  CommandKind = "configure"
	CommandStart      CommandKind = "start"
	CommandStop       CommandKind = "stop"
	CommandDisconnect CommandKind = "disconnect"
	CommandExit       CommandKind = "exit"
)

// Command is one inbound supervisor message.
type Command struct {
	Command    CommandKind     `json:"command"`
	Parameters json.RawMessage `json:"parameters"`
}

// ConfigureParameters is the parameters object of a "configure" command.
type ConfigureParameters struct {
	Configuration Configuration `json:"configuration"`
}

// CommandReply is the response line emitted for every accepted command.
type CommandReply struct {
	Response ResponseCode `json:"response"`
}

// TelemetryFrame is one device's sample: name, TAI timestamp, response
// code and the sensor's ordered channel values (NaN for missing or
// disconnected channels). It marshals as the JSON array the wire protocol
// carries: ["<name>", <tai>, "<response>", <v1>, <v2>, …].
type TelemetryFrame struct {
	Name     string
	TAI      float64
	Response ResponseCode
	Values   []float64
}

// TelemetryReply wraps a TelemetryFrame for emission on the wire.
type TelemetryReply struct {
	Telemetry TelemetryFrame `json:"telemetry"`
}

// MarshalJSON flattens a TelemetryFrame into the heterogeneous array the
// wire protocol expects. encoding/json refuses to marshal NaN, but the
// supervisor's own JSON reader (the Python json module, non-standard but
// widely interoperable) accepts the bare NaN/Infinity/-Infinity tokens
// that a missing or disconnected channel must carry, so floats are
// formatted by hand instead of delegating to json.Marshal.
func (f TelemetryFrame) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(f.Name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(name)
	buf.WriteByte(',')
	buf.WriteString(formatFloat(f.TAI))
	buf.WriteByte(',')
	resp, err := json.Marshal(f.Response.String())
	if err != nil {
		return nil, err
	}
	buf.Write(resp)
	for _, v := range f.Values {
		buf.WriteByte(',')
		buf.WriteString(formatFloat(v))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
