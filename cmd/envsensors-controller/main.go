// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// This is the single entry point for the environmental-sensor
// controller: it binds the TCP command/telemetry session, serves the
// diagnostics ping route alongside it, and exits 0 on clean shutdown or
// non-zero on bind failure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
	"github.com/lsst-ts/envsensors-controller-go/internal/config"
	"github.com/lsst-ts/envsensors-controller-go/internal/diagnostics"
	"github.com/lsst-ts/envsensors-controller-go/internal/handler"
	"github.com/lsst-ts/envsensors-controller-go/internal/session"
	"github.com/lsst-ts/envsensors-controller-go/pkg/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		confDir        string
		host           string
		port           int
		simulation     bool
		diagnosticAddr string
	)

	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "envsensors-controller",
		Short: "Environmental-sensor controller",
		Long: `envsensors-controller accepts a device configuration, opens the
configured temperature, humidity, wind and particulate instruments, and
streams parsed telemetry back to a single connected supervisor over TCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(confDir)
			if err != nil {
				return err
			}
			cfg = loaded

			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("simulation") {
				cfg.Simulation = simulation
			}

			return serve(cfg, diagnosticAddr)
		},
	}

	cmd.Flags().StringVar(&host, "host", cfg.Host, "interface to listen on")
	cmd.Flags().IntVar(&port, "port", cfg.Port, "TCP port to listen on")
	cmd.Flags().BoolVar(&simulation, "simulation", cfg.Simulation, "force every device onto the mock transport")
	cmd.Flags().StringVar(&confDir, "config", "", "directory containing configuration.toml (defaults to ./res)")
	cmd.Flags().StringVar(&diagnosticAddr, "diagnostics-addr", "0.0.0.0:8080", "address for the read-only diagnostics HTTP server")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// serve wires the logging client, command handler, TCP session and
// diagnostics HTTP server together and blocks until the session's
// listening socket is closed by an "exit" command or a bind failure.
func serve(cfg config.ServerConfig, diagnosticAddr string) error {
	config.Apply(cfg)
	log := common.NewLoggingClient("envsensors-controller", cfg.LogLevel)

	// handler.New needs a TelemetryWriter before the Server exists (the
	// Server in turn needs the already-built Handler), so the callback
	// captures s by reference and resolves it lazily on first use.
	var s *session.Server
	h := handler.New(cfg.Simulation, func(r models.TelemetryReply) { s.WriteTelemetry(r) }, log)
	s = session.New(h, log)

	diag := diagnostics.New(h, log)
	go func() {
		if err := diag.ListenAndServe(diagnosticAddr); err != nil {
			log.Warn("diagnostics server stopped: " + err.Error())
		}
	}()
	defer diag.Shutdown()

	return s.Start(cfg.Host, cfg.Port)
}
