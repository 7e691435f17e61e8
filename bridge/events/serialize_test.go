/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"encoding/json"
	"reflect"
	"testing"

	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

func newTestParticipant() (*participant.RemoteParticipant, *participant.RemoteTrackPublication) {
	publication := &participant.RemoteTrackPublication{
		Kind:       participant.TrackKindVideo,
		TrackSID:   "MT1",
		TrackName:  "cam",
		Enabled:    true,
		Subscribed: true,
		Track: &participant.RemoteTrack{
			SID:     "MT1",
			Name:    "cam",
			Enabled: true,
		},
	}
	p := &participant.RemoteParticipant{
		Identity: "alice",
		SID:      "PA1",
	}
	return p, publication
}

func TestParticipantToMapNoTracks(t *testing.T) {
	p, publication := newTestParticipant()
	p.Publications = append(p.Publications, publication)

	m := ParticipantToMap(p, true)
	if _, ok := m[FieldRemoteVideoTrackPublications]; ok {
		t.Errorf("tracks field must not be present without tracks: %v", m)
	}
	expected := map[string]interface{}{
		"identity": "alice",
		"sid":      "PA1",
	}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("unexpected participant record: got %v want %v", m, expected)
	}
}

func TestParticipantToMapWithoutPublishedTracks(t *testing.T) {
	p, _ := newTestParticipant()

	m := ParticipantToMap(p, false)
	value, ok := m[FieldRemoteVideoTrackPublications]
	if !ok {
		t.Fatalf("tracks field missing: %v", m)
	}
	tracks, ok := value.([]interface{})
	if !ok || tracks == nil {
		t.Fatalf("tracks must be an empty list, got %#v", value)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks, got %v", tracks)
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"identity":"alice","remoteVideoTrackPublications":[],"sid":"PA1"}` {
		t.Errorf("unexpected json: %s", b)
	}
}

func TestParticipantToMapWithTracks(t *testing.T) {
	p, publication := newTestParticipant()
	p.Publications = []*participant.RemoteTrackPublication{
		publication,
		{Kind: participant.TrackKindAudio, TrackSID: "MT2", TrackName: "mic"},
		{Kind: participant.TrackKindVideo, TrackSID: "MT3", TrackName: "screen"},
	}

	m := ParticipantToMap(p, false)
	tracks := m[FieldRemoteVideoTrackPublications].([]interface{})
	if len(tracks) != 2 {
		t.Fatalf("expected 2 video tracks, got %d", len(tracks))
	}
	if sid := tracks[0].(map[string]interface{})["sid"]; sid != "MT1" {
		t.Errorf("unexpected first track: %v", sid)
	}
	if sid := tracks[1].(map[string]interface{})["sid"]; sid != "MT3" {
		t.Errorf("unexpected second track: %v", sid)
	}
}

func TestPublicationToMapWithTrack(t *testing.T) {
	_, publication := newTestParticipant()

	m := PublicationToMap(publication)
	expected := map[string]interface{}{
		"sid":        "MT1",
		"name":       "cam",
		"enabled":    true,
		"subscribed": true,
		"remoteVideoTrack": map[string]interface{}{
			"sid":     "MT1",
			"name":    "cam",
			"enabled": true,
		},
	}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("unexpected publication record: got %v want %v", m, expected)
	}
}

func TestPublicationToMapWithoutTrack(t *testing.T) {
	_, publication := newTestParticipant()
	publication.Subscribed = false
	publication.Track = nil

	m := PublicationToMap(publication)
	value, ok := m[FieldRemoteVideoTrack]
	if !ok {
		t.Fatalf("track field must be present: %v", m)
	}
	if value != nil {
		t.Errorf("track field must be nil, got %#v", value)
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"enabled":true,"name":"cam","remoteVideoTrack":null,"sid":"MT1","subscribed":false}` {
		t.Errorf("unexpected json: %s", b)
	}
}

func TestNilRecords(t *testing.T) {
	if m := ParticipantToMap(nil, false); m != nil {
		t.Errorf("expected nil participant record, got %v", m)
	}
	if m := PublicationToMap(nil); m != nil {
		t.Errorf("expected nil publication record, got %v", m)
	}
	if m := TrackToMap(nil); m != nil {
		t.Errorf("expected nil track record, got %v", m)
	}
}

func TestSerializationIsIdempotent(t *testing.T) {
	p, publication := newTestParticipant()
	p.Publications = append(p.Publications, publication)

	if a, b := ParticipantToMap(p, false), ParticipantToMap(p, false); !reflect.DeepEqual(a, b) {
		t.Errorf("participant records differ: %v != %v", a, b)
	}
	if a, b := PublicationToMap(publication), PublicationToMap(publication); !reflect.DeepEqual(a, b) {
		t.Errorf("publication records differ: %v != %v", a, b)
	}
}
