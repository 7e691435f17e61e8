/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/odata"
)

func TestWriteErrorAsJSON(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
		code   string
	}{
		{NewErrorWithCodeAndMessage("ErrorMessageNotFound", "missing", ErrNotFound), http.StatusNotFound, "ErrorMessageNotFound"},
		{NewErrorWithCodeAndMessage("ErrorMessageUnauthorized", "denied", ErrUnauthorized), http.StatusUnauthorized, "ErrorMessageUnauthorized"},
		{errors.New("boom"), http.StatusInternalServerError, ErrorCodeUnspecifiedError},
	} {
		rr := httptest.NewRecorder()
		if err := WriteErrorAsJSON(rr, tc.err); err != nil {
			t.Fatal(err)
		}
		if rr.Code != tc.status {
			t.Errorf("%v: got status %v want %v", tc.err, rr.Code, tc.status)
		}
		e := &ErrorWithCodeAndMessage{}
		if err := json.Unmarshal(rr.Body.Bytes(), e); err != nil {
			t.Fatal(err)
		}
		if e.Code != tc.code {
			t.Errorf("%v: got code %v want %v", tc.err, e.Code, tc.code)
		}
	}
}

func TestCollectionResourceContext(t *testing.T) {
	var resource *CollectionResource
	handler := odata.WithOData(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		resource = NewCollectionResource(nil, req, nil)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/kwm/v0/participants", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if resource.ODataContext != "/api/kwm/v0/participants" {
		t.Errorf("unexpected context: %v", resource.ODataContext)
	}
	if values, ok := resource.Values.([]interface{}); !ok || values == nil {
		t.Errorf("expected empty values, got %#v", resource.Values)
	}
}
