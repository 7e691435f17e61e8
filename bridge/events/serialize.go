/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

// Payload field names.
const (
	FieldRemoteParticipant            = "remoteParticipant"
	FieldRemoteVideoTrackPublication  = "remoteVideoTrackPublication"
	FieldRemoteVideoTrackPublications = "remoteVideoTrackPublications"
	FieldRemoteVideoTrack             = "remoteVideoTrack"

	FieldIdentity   = "identity"
	FieldSID        = "sid"
	FieldName       = "name"
	FieldEnabled    = "enabled"
	FieldSubscribed = "subscribed"
)

// ParticipantToMap serializes the provided participant. The video track
// publications are included as ordered list unless noTracks is set, in which
// case the field is left out entirely. A nil participant results in nil.
func ParticipantToMap(p *participant.RemoteParticipant, noTracks bool) map[string]interface{} {
	if p == nil {
		return nil
	}

	m := map[string]interface{}{
		FieldIdentity: p.Identity,
		FieldSID:      p.SID,
	}
	if !noTracks {
		publications := p.RemoteVideoTracks()
		tracks := make([]interface{}, 0, len(publications))
		for _, publication := range publications {
			tracks = append(tracks, PublicationToMap(publication))
		}
		m[FieldRemoteVideoTrackPublications] = tracks
	}

	return m
}

// PublicationToMap serializes the provided video track publication. The nested
// track field is always set, nil if the publication has no resolved track. A
// nil publication results in nil.
func PublicationToMap(publication *participant.RemoteTrackPublication) map[string]interface{} {
	if publication == nil {
		return nil
	}

	return map[string]interface{}{
		FieldSID:              publication.TrackSID,
		FieldName:             publication.TrackName,
		FieldEnabled:          publication.Enabled,
		FieldSubscribed:       publication.Subscribed,
		FieldRemoteVideoTrack: absentIfNil(TrackToMap(publication.Track)),
	}
}

// TrackToMap serializes the provided track, nil results in nil.
func TrackToMap(track *participant.RemoteTrack) map[string]interface{} {
	if track == nil {
		return nil
	}

	return map[string]interface{}{
		FieldSID:     track.SID,
		FieldName:    track.Name,
		FieldEnabled: track.Enabled,
	}
}

// absentIfNil turns nil records into an untyped nil, so the absent marker
// compares and encodes the same no matter where it came from.
func absentIfNil(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}
