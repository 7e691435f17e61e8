/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package participant

import (
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	p := &RemoteParticipant{
		Identity: "alice",
		SID:      "PA1",
		Publications: []*RemoteTrackPublication{
			{Kind: TrackKindVideo, TrackSID: "MT1", TrackName: "cam", Enabled: true, Subscribed: true, Track: &RemoteTrack{SID: "MT1", Name: "cam", Enabled: true}},
		},
	}

	c := p.Clone()
	p.Identity = "bob"
	p.Publications[0].Enabled = false
	p.Publications[0].Track.Name = "screen"

	if c.Identity != "alice" {
		t.Errorf("clone identity changed: %v", c.Identity)
	}
	if !c.Publications[0].Enabled {
		t.Errorf("clone publication changed")
	}
	if c.Publications[0].Track.Name != "cam" {
		t.Errorf("clone track changed: %v", c.Publications[0].Track.Name)
	}
}

func TestRemoteVideoTracksKeepsOrder(t *testing.T) {
	p := &RemoteParticipant{
		Publications: []*RemoteTrackPublication{
			{Kind: TrackKindVideo, TrackSID: "MT1"},
			{Kind: TrackKindAudio, TrackSID: "MT2"},
			{Kind: TrackKindVideo, TrackSID: "MT3"},
			nil,
		},
	}

	tracks := p.RemoteVideoTracks()
	if len(tracks) != 2 || tracks[0].TrackSID != "MT1" || tracks[1].TrackSID != "MT3" {
		t.Errorf("unexpected video tracks: %v", tracks)
	}
	if audio := p.RemoteAudioTracks(); len(audio) != 1 {
		t.Errorf("unexpected audio tracks: %v", audio)
	}
	if data := p.RemoteDataTracks(); data == nil || len(data) != 0 {
		t.Errorf("expected empty non nil data tracks, got %v", data)
	}
	if p.Publication("MT2") == nil {
		t.Errorf("expected publication MT2")
	}
	if p.Publication("MT9") != nil {
		t.Errorf("unexpected publication MT9")
	}
}

func TestNilClone(t *testing.T) {
	var p *RemoteParticipant
	if p.Clone() != nil {
		t.Errorf("expected nil clone")
	}
	if tracks := p.RemoteVideoTracks(); len(tracks) != 0 {
		t.Errorf("expected no tracks")
	}
}
