// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// CommandError is the error kind every command-handler transition raises
// instead of returning a bare ResponseCode: it carries the response code
// the session must reply with, plus (via Cause) whatever underlying error
// explains it for the log.
type CommandError struct {
	Code  models.ResponseCode
	msg   string
	cause error
}

// NewCommandError builds a CommandError with no wrapped cause.
func NewCommandError(code models.ResponseCode, msg string) *CommandError {
	return &CommandError{Code: code, msg: msg}
}

// WrapCommandError builds a CommandError that wraps an underlying cause,
// preserving it for logging via errors.Cause while the wire-visible
// response stays just the ResponseCode.
func WrapCommandError(code models.ResponseCode, cause error, msg string) *CommandError {
	return &CommandError{Code: code, msg: msg, cause: errors.Wrap(cause, msg)}
}

func (e *CommandError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.msg
}

func (e *CommandError) Cause() error {
	if e.cause != nil {
		return e.cause
	}
	return e
}

// ConfigurationError builds a CommandError surfaced as
// InvalidConfiguration: a rejected device configuration.
func ConfigurationError(msg string) *CommandError {
	return NewCommandError(models.InvalidConfiguration, msg)
}

// StateError builds a CommandError surfaced as one of AlreadyStarted,
// NotConfigured or NotStarted: a command not permitted in the current
// state.
func StateError(code models.ResponseCode, msg string) *CommandError {
	return NewCommandError(code, msg)
}

// TransportOpenError wraps a transport-open failure as DeviceReadError.
func TransportOpenError(cause error, msg string) *CommandError {
	return WrapCommandError(models.DeviceReadError, cause, msg)
}
