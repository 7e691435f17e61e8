/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package pionsource

import (
	"errors"
	"fmt"
	"sort"

	"github.com/orcaman/concurrent-map"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
	"stash.kopano.io/kwm/kwmeventbridge/config"
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
	"stash.kopano.io/kwm/kwmeventbridge/internal/utils"
)

// Errors returned by Session.
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTrackNotFound       = errors.New("track not found")
	ErrTrackKind           = errors.New("operation not supported for track kind")
)

// Options define the settings of a Session.
type Options struct {
	Config *config.Config
	Logger logrus.FieldLogger

	// Verbose enables debug logging of pion internals.
	Verbose bool
}

// Session tracks the remote participants of pion peer connections and
// reports their track lifecycle to a Listener. Callbacks for a single track
// are delivered in order from the goroutine which owns that track.
type Session struct {
	logger   logrus.FieldLogger
	listener events.Listener

	api *webrtc.API

	participants cmap.ConcurrentMap
}

// NewSession creates a Session reporting to the provided listener.
func NewSession(listener events.Listener, options *Options) (*Session, error) {
	if listener == nil {
		return nil, errors.New("listener cannot be nil")
	}
	if options == nil || options.Logger == nil || options.Config == nil {
		return nil, errors.New("options with config and logger required")
	}

	logger := options.Logger.WithField("source", "pion")
	api, err := NewAPI(options.Config, logger, options.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create webrtc API: %w", err)
	}

	return &Session{
		logger:   logger,
		listener: listener,

		api: api,

		participants: cmap.New(),
	}, nil
}

// NewPeerConnection creates a peer connection with the accociated session's
// settings.
func (s *Session) NewPeerConnection() (*webrtc.PeerConnection, error) {
	return s.api.NewPeerConnection(webrtc.Configuration{
		ICEServers:   []webrtc.ICEServer{},
		SDPSemantics: webrtc.SDPSemanticsUnifiedPlan,
	})
}

// Participants implements participant.Directory.
func (s *Session) Participants() []*participant.RemoteParticipant {
	records := make([]*participantRecord, 0, s.participants.Count())
	s.participants.IterCb(func(sid string, v interface{}) {
		records = append(records, v.(*participantRecord))
	})
	sort.Slice(records, func(i, j int) bool {
		return records[i].when.Before(records[j].when)
	})

	participants := make([]*participant.RemoteParticipant, 0, len(records))
	for _, record := range records {
		record.RLock()
		participants = append(participants, record.snapshot())
		record.RUnlock()
	}
	return participants
}

// Participant implements participant.Directory.
func (s *Session) Participant(sid string) (*participant.RemoteParticipant, bool) {
	record, ok := s.getRecord(sid)
	if !ok {
		return nil, false
	}
	record.RLock()
	defer record.RUnlock()
	return record.snapshot(), true
}

func (s *Session) getRecord(sid string) (*participantRecord, bool) {
	v, ok := s.participants.Get(sid)
	if !ok {
		return nil, false
	}
	return v.(*participantRecord), true
}

func (s *Session) addRecord(identity string) *participantRecord {
	record := newParticipantRecord(identity, "PA"+utils.NewRandomString(32))
	s.participants.Set(record.sid, record)
	s.logger.WithFields(logrus.Fields{
		"participant_sid": record.sid,
		"identity":        identity,
	}).Infoln("remote participant added")
	return record
}

// RemoveParticipant unsubscribes and unpublishes all tracks of the
// participant with the provided sid and forgets it.
func (s *Session) RemoveParticipant(sid string) error {
	v, ok := s.participants.Pop(sid)
	if !ok {
		return ErrParticipantNotFound
	}
	record := v.(*participantRecord)

	record.Lock()
	record.closed = true
	trackSIDs := make([]string, 0, len(record.publications))
	for _, publication := range record.publications {
		trackSIDs = append(trackSIDs, publication.TrackSID)
	}
	record.Unlock()

	for _, trackSID := range trackSIDs {
		s.endTrack(record, trackSID)
	}
	s.logger.WithField("participant_sid", sid).Infoln("remote participant removed")
	return nil
}

// SetTrackEnabled enables or disables the audio or video track with the
// provided sid.
func (s *Session) SetTrackEnabled(participantSID, trackSID string, enabled bool) error {
	record, ok := s.getRecord(participantSID)
	if !ok {
		return ErrParticipantNotFound
	}

	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	_, publication := record.publication(trackSID)
	if publication == nil {
		record.Unlock()
		return ErrTrackNotFound
	}
	if publication.Kind == participant.TrackKindData {
		record.Unlock()
		return ErrTrackKind
	}
	if publication.Enabled == enabled {
		record.Unlock()
		return nil
	}
	publication.Enabled = enabled
	if publication.Track != nil {
		publication.Track.Enabled = enabled
	}
	p, pub := record.snapshot(), publication.Clone()
	record.Unlock()

	switch {
	case pub.Kind == participant.TrackKindAudio && enabled:
		s.listener.OnAudioTrackEnabled(p, pub)
	case pub.Kind == participant.TrackKindAudio:
		s.listener.OnAudioTrackDisabled(p, pub)
	case enabled:
		s.listener.OnVideoTrackEnabled(p, pub)
	default:
		s.listener.OnVideoTrackDisabled(p, pub)
	}
	return nil
}

func (s *Session) publishTrack(record *participantRecord, kind participant.TrackKind, trackSID, trackName string) bool {
	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	if record.closed {
		record.Unlock()
		return false
	}
	if _, existing := record.publication(trackSID); existing != nil {
		record.Unlock()
		return false
	}
	publication := &participant.RemoteTrackPublication{
		Kind:      kind,
		TrackSID:  trackSID,
		TrackName: trackName,
		Enabled:   true,
	}
	record.publications = append(record.publications, publication)
	record.stats[trackSID] = &trackStats{}
	p, pub := record.snapshot(), publication.Clone()
	record.Unlock()

	switch kind {
	case participant.TrackKindAudio:
		s.listener.OnAudioTrackPublished(p, pub)
	case participant.TrackKindVideo:
		s.listener.OnVideoTrackPublished(p, pub)
	case participant.TrackKindData:
		s.listener.OnDataTrackPublished(p, pub)
	}
	return true
}

func (s *Session) subscribeTrack(record *participantRecord, trackSID string) bool {
	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	_, publication := record.publication(trackSID)
	if publication == nil || publication.Subscribed {
		record.Unlock()
		return false
	}
	publication.Subscribed = true
	publication.Track = &participant.RemoteTrack{
		SID:     publication.TrackSID,
		Name:    publication.TrackName,
		Enabled: publication.Enabled,
	}
	p, pub, track := record.snapshot(), publication.Clone(), publication.Track.Clone()
	record.Unlock()

	switch pub.Kind {
	case participant.TrackKindAudio:
		s.listener.OnAudioTrackSubscribed(p, pub, track)
	case participant.TrackKindVideo:
		s.listener.OnVideoTrackSubscribed(p, pub, track)
	case participant.TrackKindData:
		s.listener.OnDataTrackSubscribed(p, pub, track)
	}
	return true
}

func (s *Session) failSubscription(record *participantRecord, trackSID string, err error) bool {
	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	_, publication := record.publication(trackSID)
	if publication == nil || publication.Subscribed {
		record.Unlock()
		return false
	}
	p, pub := record.snapshot(), publication.Clone()
	record.Unlock()

	switch pub.Kind {
	case participant.TrackKindAudio:
		s.listener.OnAudioTrackSubscriptionFailed(p, pub, err)
	case participant.TrackKindVideo:
		s.listener.OnVideoTrackSubscriptionFailed(p, pub, err)
	case participant.TrackKindData:
		s.listener.OnDataTrackSubscriptionFailed(p, pub, err)
	}
	return true
}

func (s *Session) unsubscribeTrack(record *participantRecord, trackSID string) bool {
	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	_, publication := record.publication(trackSID)
	if publication == nil || !publication.Subscribed {
		record.Unlock()
		return false
	}
	track := publication.Track
	publication.Subscribed = false
	publication.Track = nil
	p, pub := record.snapshot(), publication.Clone()
	record.Unlock()

	switch pub.Kind {
	case participant.TrackKindAudio:
		s.listener.OnAudioTrackUnsubscribed(p, pub, track)
	case participant.TrackKindVideo:
		s.listener.OnVideoTrackUnsubscribed(p, pub, track)
	case participant.TrackKindData:
		s.listener.OnDataTrackUnsubscribed(p, pub, track)
	}
	return true
}

func (s *Session) unpublishTrack(record *participantRecord, trackSID string) bool {
	record.delivery.Lock()
	defer record.delivery.Unlock()

	record.Lock()
	idx, publication := record.publication(trackSID)
	if publication == nil {
		record.Unlock()
		return false
	}
	record.publications = append(record.publications[:idx], record.publications[idx+1:]...)
	delete(record.stats, trackSID)
	p, pub := record.snapshot(), publication.Clone()
	record.Unlock()

	switch pub.Kind {
	case participant.TrackKindAudio:
		s.listener.OnAudioTrackUnpublished(p, pub)
	case participant.TrackKindVideo:
		s.listener.OnVideoTrackUnpublished(p, pub)
	case participant.TrackKindData:
		s.listener.OnDataTrackUnpublished(p, pub)
	}
	return true
}

// endTrack unsubscribes and unpublishes, both steps are no-ops if they
// already happened.
func (s *Session) endTrack(record *participantRecord, trackSID string) {
	s.unsubscribeTrack(record, trackSID)
	s.unpublishTrack(record, trackSID)
}

func (s *Session) countPacket(record *participantRecord, trackSID string, pkt *rtp.Packet) {
	record.Lock()
	if stats, ok := record.stats[trackSID]; ok {
		stats.packets++
		stats.bytes += uint64(len(pkt.Payload))
		stats.lastSequenceNumber = pkt.SequenceNumber
	}
	record.Unlock()
}

// TrackStats returns the number of RTP packets and payload bytes received
// for the track with the provided sid.
func (s *Session) TrackStats(participantSID, trackSID string) (packets uint64, bytes uint64, err error) {
	record, ok := s.getRecord(participantSID)
	if !ok {
		return 0, 0, ErrParticipantNotFound
	}
	record.RLock()
	defer record.RUnlock()
	stats, ok := record.stats[trackSID]
	if !ok {
		return 0, 0, ErrTrackNotFound
	}
	return stats.packets, stats.bytes, nil
}
