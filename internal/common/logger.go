// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/sirupsen/logrus"
)

// LoggingClient is the logging facade every component in this repository
// takes as an explicit dependency rather than reaching for a package-level
// global: the entry point builds one and hands it to the session and to
// the handler, which hands it to every Device it opens. The session tags
// each connection's read-loop lines with a correlation id via WithField.
type LoggingClient interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	// WithField returns a LoggingClient that annotates every subsequent
	// message with one extra structured field, without mutating the
	// receiver. Used to attach a connection's correlation id to every
	// line its read loop logs.
	WithField(key string, value interface{}) LoggingClient
}

type logrusClient struct {
	entry *logrus.Entry
}

// NewLoggingClient builds a LoggingClient backed by logrus, configured
// with the given level name ("debug", "info", "warn", "error"; defaults
// to "info" on an unrecognized level).
func NewLoggingClient(serviceName string, level string) LoggingClient {
	logger := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusClient{entry: logger.WithField("service", serviceName)}
}

func (c *logrusClient) Debug(msg string) { c.entry.Debug(msg) }
func (c *logrusClient) Info(msg string)  { c.entry.Info(msg) }
func (c *logrusClient) Warn(msg string)  { c.entry.Warn(msg) }
func (c *logrusClient) Error(msg string) { c.entry.Error(msg) }

func (c *logrusClient) WithField(key string, value interface{}) LoggingClient {
	return &logrusClient{entry: c.entry.WithField(key, value)}
}
