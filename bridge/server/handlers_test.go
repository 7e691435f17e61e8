/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create our server.
	httpServer, _, router, _ := newTestServer(ctx, t)
	defer httpServer.Close()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		// Prepare the request to pass to our handler.
		req, err := http.NewRequest(method, "/health-check", nil)
		if err != nil {
			t.Fatal(err)
		}

		// Create response recorder to record the response.
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// Check the status code is what we expect.
		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
	}
}
