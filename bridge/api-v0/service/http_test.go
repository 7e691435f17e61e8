/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus/hooks/test"

	"stash.kopano.io/kwm/kwmeventbridge/bridge"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/hub"
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

type staticDirectory []*participant.RemoteParticipant

func (d staticDirectory) Participants() []*participant.RemoteParticipant {
	return d
}

func (d staticDirectory) Participant(sid string) (*participant.RemoteParticipant, bool) {
	for _, p := range d {
		if p.SID == sid {
			return p, true
		}
	}
	return nil, false
}

func newTestRouter(t *testing.T, services *bridge.Services) http.Handler {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()
	router := mux.NewRouter()

	return NewHTTPService(ctx, logger, services, nil).AddRoutes(ctx, router, alice.New())
}

func testDirectory() staticDirectory {
	return staticDirectory{
		{
			Identity: "alice",
			SID:      "PA1",
			Publications: []*participant.RemoteTrackPublication{
				{
					Kind:       participant.TrackKindVideo,
					TrackSID:   "MT1",
					TrackName:  "camera",
					Enabled:    true,
					Subscribed: true,
					Track:      &participant.RemoteTrack{SID: "MT1", Name: "camera", Enabled: true},
				},
				{
					Kind:      participant.TrackKindAudio,
					TrackSID:  "MT2",
					TrackName: "mic",
					Enabled:   true,
				},
			},
		},
		{
			Identity: "bob",
			SID:      "PA2",
		},
	}
}

func TestParticipantsCollection(t *testing.T) {
	router := newTestRouter(t, &bridge.Services{Directory: testDirectory()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+"/participants", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var collection struct {
		ODataContext string                   `json:"@odata.context"`
		Values       []map[string]interface{} `json:"values"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &collection); err != nil {
		t.Fatal(err)
	}
	if collection.ODataContext != URIPrefix+"/participants" {
		t.Errorf("unexpected odata context: %v", collection.ODataContext)
	}
	if len(collection.Values) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(collection.Values))
	}

	alice := collection.Values[0]
	if alice["identity"] != "alice" || alice["sid"] != "PA1" {
		t.Errorf("unexpected participant: %v", alice)
	}
	tracks, ok := alice["remoteVideoTrackPublications"].([]interface{})
	if !ok || len(tracks) != 1 {
		t.Fatalf("expected one video publication, got %v", alice["remoteVideoTrackPublications"])
	}
	track := tracks[0].(map[string]interface{})
	if track["sid"] != "MT1" || track["subscribed"] != true {
		t.Errorf("unexpected publication: %v", track)
	}

	bob := collection.Values[1]
	if tracks, ok := bob["remoteVideoTrackPublications"].([]interface{}); !ok || len(tracks) != 0 {
		t.Errorf("expected empty video publication list, got %v", bob["remoteVideoTrackPublications"])
	}
}

func TestParticipantItem(t *testing.T) {
	router := newTestRouter(t, &bridge.Services{Directory: testDirectory()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+"/participants/PA2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+"/participants/PA9", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRoutesRequireServices(t *testing.T) {
	router := newTestRouter(t, &bridge.Services{})

	for _, path := range []string{
		"/participants",
		"/events/consumers",
		"/upstreams/clients",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected not found, got %d", path, rec.Code)
		}
	}
}

func TestEventConsumersRoute(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h, err := hub.New(&hub.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	services := &bridge.Services{Hub: h}
	router := newTestRouter(t, services)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+"/events/consumers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var collection struct {
		Values []interface{} `json:"values"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &collection); err != nil {
		t.Fatal(err)
	}
	if len(collection.Values) != 0 {
		t.Errorf("expected no consumers, got %v", collection.Values)
	}

	service := NewHTTPService(context.Background(), logger, services, nil)
	if n := service.NumActive(); n != 0 {
		t.Errorf("expected no active connections, got %d", n)
	}
}

func TestResourcesRequireAuthentication(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()
	authenticator := func(req *http.Request) (string, error) {
		if req.Header.Get("Authorization") != "Bearer valid" {
			return "", errors.New("invalid token")
		}
		return "alice", nil
	}

	h, err := hub.New(&hub.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	services := &bridge.Services{
		Hub:       h,
		Directory: testDirectory(),
	}
	router := NewHTTPService(ctx, logger, services, authenticator).AddRoutes(ctx, mux.NewRouter(), alice.New())

	for _, path := range []string{
		"/participants",
		"/participants/PA1",
		"/events/consumers",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, URIPrefix+path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected unauthorized, got %d", path, rec.Code)
		}
		var e struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Code != "ErrorMessageUnauthorized" {
			t.Errorf("%s: unexpected error body: %s", path, rec.Body.String())
		}

		req := httptest.NewRequest(http.MethodGet, URIPrefix+path, nil)
		req.Header.Set("Authorization", "Bearer valid")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected ok with token, got %d", path, rec.Code)
		}
	}
}
