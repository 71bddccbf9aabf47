// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package session implements the single-client TCP server carrying the
// supervisor protocol: one JSON object per line terminated by "\r\n",
// dispatched to the command handler, with telemetry fanned back out to
// the same peer.
package session

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/internal/handler"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

// State is the session's own connection-level state machine, distinct
// from the command handler's configure/start/stop state.
type State int

const (
	Idle State = iota
	Listening
	Connected
)

// Server terminates exactly one TCP client at a time.
type Server struct {
	log     common.LoggingClient
	handler *handler.Handler

	mu       sync.Mutex
	state    State
	listener net.Listener
	peer     net.Conn
	peerDone chan struct{}

	// writeMu serializes writes to the peer: telemetry callbacks arrive
	// from every device goroutine while command replies come from the
	// read loop, and the peer is a single-writer resource.
	writeMu sync.Mutex
}

// New builds a Server. The Handler is expected to have been constructed
// with this Server's WriteTelemetry method as its TelemetryWriter.
func New(h *handler.Handler, log common.LoggingClient) *Server {
	return &Server{handler: h, log: log, state: Idle}
}

// Start binds host:port and accepts connections one at a time until the
// listener is closed (by Exit or an external Close). It blocks the
// calling goroutine; callers typically run it in its own goroutine.
func (s *Server) Start(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "binding %s", addr)
	}

	s.mu.Lock()
	s.listener = listener
	s.state = Listening
	s.mu.Unlock()

	s.log.Info("listening on " + addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.state == Idle
			s.mu.Unlock()
			if closed {
				return nil
			}
			return errors.Wrap(err, "accept failed")
		}

		s.acceptPeer(conn)
	}
}

// acceptPeer installs conn as the current peer and starts its read loop,
// replacing any previous peer (the session holds at most one client).
func (s *Server) acceptPeer(conn net.Conn) {
	s.mu.Lock()
	if s.peer != nil {
		_ = s.peer.Close()
	}
	s.peer = conn
	s.state = Connected
	done := make(chan struct{})
	s.peerDone = done
	s.mu.Unlock()

	// Every connection gets its own correlation id so overlapping
	// connect/disconnect cycles stay distinguishable in the log.
	connLog := s.log.WithField("correlation_id", uuid.New().String())
	connLog.Info("client connected: " + conn.RemoteAddr().String())
	go s.readLoop(conn, done, connLog)
}

// Write emits one framed JSON reply to the current peer. If there is no
// peer, the reply is discarded and logged.
func (s *Server) Write(v interface{}) {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()

	if peer == nil {
		s.log.Debug("no connected peer, discarding reply")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshalling reply: " + err.Error())
		return
	}
	data = append(data, '\r', '\n')

	s.writeMu.Lock()
	_, err = peer.Write(data)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn("write to dead peer, dropping: " + err.Error())
	}
}

// WriteTelemetry adapts Write to handler.TelemetryWriter.
func (s *Server) WriteTelemetry(r models.TelemetryReply) {
	s.Write(r)
}

// readLoop accumulates bytes until "\r\n", dispatches each parsed line to
// the handler, and writes back exactly one reply per command. log is the
// per-connection, correlation-id-tagged logger built by acceptPeer.
func (s *Server) readLoop(conn net.Conn, done chan struct{}, log common.LoggingClient) {
	defer close(done)
	reader := bufio.NewReader(conn)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial line cut off by EOF is an incomplete read, not a
			// protocol error: discard it and retry, so a half-written
			// frame never tears down the connection by itself. The retry
			// observes the close, if any, as a clean error with nothing
			// buffered.
			if err == io.EOF && line != "" {
				log.Warn("incomplete read, discarding partial line and retrying")
				continue
			}
			log.Info("read loop ending for " + conn.RemoteAddr().String() + ": " + err.Error())
			s.disconnectPeer(conn)
			return
		}

		trimmed := trimTerminator(line)
		var cmd models.Command
		if jsonErr := json.Unmarshal([]byte(trimmed), &cmd); jsonErr != nil {
			log.Warn("malformed command line, closing peer: " + jsonErr.Error())
			s.Write(models.CommandReply{Response: models.InvalidConfiguration})
			s.disconnectPeer(conn)
			return
		}

		reply, shouldExit := s.handler.Process(cmd)
		s.Write(reply)

		if shouldExit {
			s.Exit()
			return
		}
		if cmd.Command == models.CommandDisconnect {
			s.disconnectPeer(conn)
			return
		}
	}
}

// disconnectPeer closes conn, commands the handler to stop, and returns
// the session to Listening.
func (s *Server) disconnectPeer(conn net.Conn) {
	_ = conn.Close()
	s.handler.Process(models.Command{Command: models.CommandDisconnect})

	s.mu.Lock()
	if s.peer == conn {
		s.peer = nil
		if s.state == Connected {
			s.state = Listening
		}
	}
	s.mu.Unlock()
}

// Disconnect closes only the current peer, returning the session to
// Listening without affecting the listening socket.
func (s *Server) Disconnect() {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer != nil {
		s.disconnectPeer(peer)
	}
}

// Exit closes the listening socket and terminates the server.
func (s *Server) Exit() {
	s.mu.Lock()
	listener := s.listener
	peer := s.peer
	s.state = Idle
	s.peer = nil
	s.listener = nil
	s.mu.Unlock()

	if peer != nil {
		_ = peer.Close()
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// State reports the session's current connection-level state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the listener's bound address, or nil if not Listening.
// Mainly useful for tests that bind to port 0 and need the assigned port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func trimTerminator(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
