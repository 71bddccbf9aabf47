// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package diagnostics serves a small read-only HTTP surface alongside the
// TCP session: a ping route reporting process liveness and the command
// handler's current state. It never carries configuration or telemetry
// (those stay exclusively on the TCP wire protocol), so it exists purely
// for an operator or load balancer to probe liveness.
package diagnostics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/context"
	"github.com/gorilla/mux"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

// StateReporter is the one method the handler exposes to diagnostics:
// its current command state machine state, stringified.
type StateReporter interface {
	StateName() string
}

// Server is the diagnostics HTTP listener. It is independent of the
// session's TCP listener; starting or stopping it never affects the
// command/telemetry protocol.
type Server struct {
	log     common.LoggingClient
	state   StateReporter
	started time.Time
	http    *http.Server
}

// New builds a diagnostics Server that reports reporter's state on ping.
func New(reporter StateReporter, log common.LoggingClient) *Server {
	return &Server{log: log, state: reporter, started: time.Now()}
}

type pingResponse struct {
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	UptimeSec int64  `json:"uptime_seconds"`
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	resp := pingResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		State:     s.state.StateName(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("diagnostics: encoding ping response: " + err.Error())
	}
}

// ListenAndServe binds addr and serves the diagnostics routes until the
// listener fails or Shutdown is called. It blocks the calling goroutine;
// callers typically run it in its own goroutine alongside the TCP
// session.
func (s *Server) ListenAndServe(addr string) error {
	router := mux.NewRouter()
	router.HandleFunc(common.APIPingRoute, s.ping).Methods(http.MethodGet)

	// gorilla/mux v1.6.2 relies on gorilla/context to stash per-request
	// route variables; ClearHandler purges them after each request so a
	// long-running process never accumulates stale entries.
	s.http = &http.Server{Addr: addr, Handler: context.ClearHandler(router)}
	s.log.Info("diagnostics listening on " + addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the diagnostics listener, if running.
func (s *Server) Shutdown() error {
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}
