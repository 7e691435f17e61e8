/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package pionsource

import (
	"errors"
	"io"
	"strconv"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
	"stash.kopano.io/kwm/kwmeventbridge/internal/utils"
)

// AddParticipant registers a remote participant for the provided peer
// connection and reports its tracks and data channels. It returns the sid
// of the new participant.
func (s *Session) AddParticipant(identity string, pc *webrtc.PeerConnection) (string, error) {
	if pc == nil {
		return "", errors.New("peer connection cannot be nil")
	}

	record := s.addRecord(identity)
	logger := s.logger.WithField("participant_sid", record.sid)

	pc.OnConnectionStateChange(func(connectionState webrtc.PeerConnectionState) {
		logger.Debugln("peer connection state changed", connectionState)
		switch connectionState {
		case webrtc.PeerConnectionStateFailed:
			s.failPendingSubscriptions(record, participant.NewTrackError(participant.ErrorCodeConnectionFailed, "peer connection failed"))
			fallthrough
		case webrtc.PeerConnectionStateClosed:
			if err := s.RemoveParticipant(record.sid); err != nil && err != ErrParticipantNotFound {
				logger.WithError(err).Warnln("failed to remove participant")
			}
		}
	})

	pc.OnTrack(func(remoteTrack *webrtc.Track, receiver *webrtc.RTPReceiver) {
		s.handleTrack(record, pc, remoteTrack, logger)
	})

	pc.OnDataChannel(func(dataChannel *webrtc.DataChannel) {
		s.handleDataChannel(record, dataChannel, logger)
	})

	return record.sid, nil
}

func (s *Session) handleTrack(record *participantRecord, pc *webrtc.PeerConnection, remoteTrack *webrtc.Track, logger logrus.FieldLogger) {
	logger = logger.WithFields(logrus.Fields{
		"track_id":    remoteTrack.ID(),
		"track_label": remoteTrack.Label(),
		"track_kind":  remoteTrack.Kind(),
		"track_ssrc":  remoteTrack.SSRC(),
	})

	var kind participant.TrackKind
	switch remoteTrack.Kind() {
	case webrtc.RTPCodecTypeAudio:
		kind = participant.TrackKindAudio
	case webrtc.RTPCodecTypeVideo:
		kind = participant.TrackKindVideo
	default:
		logger.Warnln("received track of unsupported kind, ignoring")
		return
	}

	trackSID := remoteTrack.ID()
	if trackSID == "" {
		trackSID = "MT" + utils.NewRandomString(32)
	}
	if !s.publishTrack(record, kind, trackSID, remoteTrack.Label()) {
		logger.Debugln("track already published, ignoring")
		return
	}
	s.subscribeTrack(record, trackSID)

	if kind == participant.TrackKindVideo {
		// Request a key frame so the track starts producing frames right away.
		if writeErr := pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: remoteTrack.SSRC()}}); writeErr != nil {
			logger.WithError(writeErr).Warnln("failed to write picture loss indicator")
		}
	}

	for {
		pkt, readErr := remoteTrack.ReadRTP()
		if readErr != nil {
			if readErr != io.EOF {
				logger.WithError(readErr).Debugln("track read ended with error")
			}
			break
		}
		s.countPacket(record, trackSID, pkt)
	}

	s.endTrack(record, trackSID)
	logger.Debugln("track ended")
}

func (s *Session) handleDataChannel(record *participantRecord, dataChannel *webrtc.DataChannel, logger logrus.FieldLogger) {
	var trackSID string
	if id := dataChannel.ID(); id != nil {
		trackSID = "DT" + strconv.FormatUint(uint64(*id), 10)
	} else {
		trackSID = "DT" + utils.NewRandomString(32)
	}
	logger = logger.WithFields(logrus.Fields{
		"track_sid":   trackSID,
		"datachannel": dataChannel.Label(),
	})

	if !s.publishTrack(record, participant.TrackKindData, trackSID, dataChannel.Label()) {
		logger.Debugln("data channel already published, ignoring")
		return
	}

	dataChannel.OnOpen(func() {
		logger.Debugln("data channel open")
		s.subscribeTrack(record, trackSID)
	})
	dataChannel.OnClose(func() {
		logger.Debugln("data channel closed")
		s.endTrack(record, trackSID)
	})
}

// failPendingSubscriptions reports a subscription failure for every
// publication of the record which never got subscribed.
func (s *Session) failPendingSubscriptions(record *participantRecord, err error) {
	record.RLock()
	pending := make([]string, 0)
	for _, publication := range record.publications {
		if !publication.Subscribed {
			pending = append(pending, publication.TrackSID)
		}
	}
	record.RUnlock()

	for _, trackSID := range pending {
		s.failSubscription(record, trackSID, err)
	}
}
