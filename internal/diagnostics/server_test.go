// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/context"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-ts/envsensors-controller-go/internal/common"
)

type fakeReporter struct{ name string }

func (f fakeReporter) StateName() string { return f.name }

func TestPingReportsHandlerState(t *testing.T) {
	log := common.NewLoggingClient("test", "error")
	s := New(fakeReporter{name: "Running"}, log)

	router := mux.NewRouter()
	router.HandleFunc(common.APIPingRoute, s.ping).Methods(http.MethodGet)
	handler := context.ClearHandler(router)

	req := httptest.NewRequest(http.MethodGet, common.APIPingRoute, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"Running"`)
}
