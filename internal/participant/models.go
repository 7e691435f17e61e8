/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package participant

// TrackKind identifies the media kind of a track publication.
type TrackKind string

// Supported track kinds.
const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
	TrackKindData  TrackKind = "data"
)

// RemoteTrack is a track of a remote participant which has been subscribed.
type RemoteTrack struct {
	SID     string `json:"sid" yaml:"sid"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Clone returns a copy of the accociated track.
func (track *RemoteTrack) Clone() *RemoteTrack {
	if track == nil {
		return nil
	}
	c := *track
	return &c
}

// RemoteTrackPublication is a track advertised by a remote participant. Track
// is only set once the subscription to the published track succeeded.
type RemoteTrackPublication struct {
	Kind       TrackKind    `json:"kind" yaml:"kind"`
	TrackSID   string       `json:"sid" yaml:"sid"`
	TrackName  string       `json:"name" yaml:"name"`
	Enabled    bool         `json:"enabled" yaml:"enabled"`
	Subscribed bool         `json:"subscribed" yaml:"subscribed"`
	Track      *RemoteTrack `json:"track,omitempty" yaml:"track,omitempty"`
}

// Clone returns a deep copy of the accociated publication.
func (publication *RemoteTrackPublication) Clone() *RemoteTrackPublication {
	if publication == nil {
		return nil
	}
	c := *publication
	c.Track = publication.Track.Clone()
	return &c
}

// RemoteParticipant is a remote peer in a session.
type RemoteParticipant struct {
	Identity     string                    `json:"identity" yaml:"identity"`
	SID          string                    `json:"sid" yaml:"sid"`
	Publications []*RemoteTrackPublication `json:"publications,omitempty" yaml:"publications,omitempty"`
}

// Clone returns a deep copy of the accociated participant.
func (p *RemoteParticipant) Clone() *RemoteParticipant {
	if p == nil {
		return nil
	}
	c := &RemoteParticipant{
		Identity: p.Identity,
		SID:      p.SID,
	}
	if p.Publications != nil {
		c.Publications = make([]*RemoteTrackPublication, 0, len(p.Publications))
		for _, publication := range p.Publications {
			c.Publications = append(c.Publications, publication.Clone())
		}
	}
	return c
}

// RemoteVideoTracks returns the video track publications of the accociated
// participant in publication order.
func (p *RemoteParticipant) RemoteVideoTracks() []*RemoteTrackPublication {
	return p.tracks(TrackKindVideo)
}

// RemoteAudioTracks returns the audio track publications of the accociated
// participant in publication order.
func (p *RemoteParticipant) RemoteAudioTracks() []*RemoteTrackPublication {
	return p.tracks(TrackKindAudio)
}

// RemoteDataTracks returns the data track publications of the accociated
// participant in publication order.
func (p *RemoteParticipant) RemoteDataTracks() []*RemoteTrackPublication {
	return p.tracks(TrackKindData)
}

// Publication returns the publication with the provided track sid or nil.
func (p *RemoteParticipant) Publication(trackSID string) *RemoteTrackPublication {
	for _, publication := range p.Publications {
		if publication != nil && publication.TrackSID == trackSID {
			return publication
		}
	}
	return nil
}

func (p *RemoteParticipant) tracks(kind TrackKind) []*RemoteTrackPublication {
	tracks := make([]*RemoteTrackPublication, 0)
	if p == nil {
		return tracks
	}
	for _, publication := range p.Publications {
		if publication != nil && publication.Kind == kind {
			tracks = append(tracks, publication)
		}
	}
	return tracks
}

// Directory provides snapshots of the currently known remote participants.
type Directory interface {
	Participants() []*RemoteParticipant
	Participant(sid string) (*RemoteParticipant, bool)
}
