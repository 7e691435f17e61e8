/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package pionsource

import (
	"time"

	"github.com/sasha-s/go-deadlock"

	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

type participantRecord struct {
	deadlock.RWMutex

	// delivery is held across a state transition and its listener callback,
	// so callbacks reach the listener in the order the transitions happened.
	// Lock order is delivery before the record lock.
	delivery deadlock.Mutex

	when     time.Time
	identity string
	sid      string

	publications []*participant.RemoteTrackPublication
	stats        map[string]*trackStats
	closed       bool
}

type trackStats struct {
	packets uint64
	bytes   uint64

	lastSequenceNumber uint16
}

func newParticipantRecord(identity, sid string) *participantRecord {
	return &participantRecord{
		when:     time.Now(),
		identity: identity,
		sid:      sid,

		stats: make(map[string]*trackStats),
	}
}

// snapshot returns a deep copy of the participant, must be called with the
// record lock held.
func (record *participantRecord) snapshot() *participant.RemoteParticipant {
	p := &participant.RemoteParticipant{
		Identity:     record.identity,
		SID:          record.sid,
		Publications: make([]*participant.RemoteTrackPublication, 0, len(record.publications)),
	}
	for _, publication := range record.publications {
		p.Publications = append(p.Publications, publication.Clone())
	}
	return p
}

func (record *participantRecord) publication(trackSID string) (int, *participant.RemoteTrackPublication) {
	for idx, publication := range record.publications {
		if publication.TrackSID == trackSID {
			return idx, publication
		}
	}
	return -1, nil
}
