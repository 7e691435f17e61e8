/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

// Listener is the per callback form of the remote participant listener.
// Callers must deliver the callbacks of a single publication in order.
type Listener interface {
	OnAudioTrackDisabled(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnAudioTrackEnabled(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnAudioTrackPublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnAudioTrackSubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)
	OnAudioTrackSubscriptionFailed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, error)
	OnAudioTrackUnpublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnAudioTrackUnsubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)

	OnDataTrackPublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnDataTrackSubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)
	OnDataTrackSubscriptionFailed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, error)
	OnDataTrackUnpublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnDataTrackUnsubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)

	OnVideoTrackDisabled(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnVideoTrackEnabled(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnVideoTrackPublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnVideoTrackSubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)
	OnVideoTrackSubscriptionFailed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, error)
	OnVideoTrackUnpublished(*participant.RemoteParticipant, *participant.RemoteTrackPublication)
	OnVideoTrackUnsubscribed(*participant.RemoteParticipant, *participant.RemoteTrackPublication, *participant.RemoteTrack)
}

type listener struct {
	handler Handler
}

// NewListener returns a Listener which turns every callback into a
// Notification for the provided handler.
func NewListener(handler Handler) Listener {
	return &listener{
		handler: handler,
	}
}

func (l *listener) notify(kind Kind, p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack, err error) {
	l.handler.Handle(&Notification{
		Kind:        kind,
		Participant: p,
		Publication: publication,
		Track:       track,
		Err:         err,
	})
}

func (l *listener) OnAudioTrackDisabled(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(AudioTrackDisabled, p, publication, nil, nil)
}

func (l *listener) OnAudioTrackEnabled(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(AudioTrackEnabled, p, publication, nil, nil)
}

func (l *listener) OnAudioTrackPublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(AudioTrackPublished, p, publication, nil, nil)
}

func (l *listener) OnAudioTrackSubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(AudioTrackSubscribed, p, publication, track, nil)
}

func (l *listener) OnAudioTrackSubscriptionFailed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, err error) {
	l.notify(AudioTrackSubscriptionFailed, p, publication, nil, err)
}

func (l *listener) OnAudioTrackUnpublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(AudioTrackUnpublished, p, publication, nil, nil)
}

func (l *listener) OnAudioTrackUnsubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(AudioTrackUnsubscribed, p, publication, track, nil)
}

func (l *listener) OnDataTrackPublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(DataTrackPublished, p, publication, nil, nil)
}

func (l *listener) OnDataTrackSubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(DataTrackSubscribed, p, publication, track, nil)
}

func (l *listener) OnDataTrackSubscriptionFailed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, err error) {
	l.notify(DataTrackSubscriptionFailed, p, publication, nil, err)
}

func (l *listener) OnDataTrackUnpublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(DataTrackUnpublished, p, publication, nil, nil)
}

func (l *listener) OnDataTrackUnsubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(DataTrackUnsubscribed, p, publication, track, nil)
}

func (l *listener) OnVideoTrackDisabled(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(VideoTrackDisabled, p, publication, nil, nil)
}

func (l *listener) OnVideoTrackEnabled(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(VideoTrackEnabled, p, publication, nil, nil)
}

func (l *listener) OnVideoTrackPublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(VideoTrackPublished, p, publication, nil, nil)
}

func (l *listener) OnVideoTrackSubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(VideoTrackSubscribed, p, publication, track, nil)
}

func (l *listener) OnVideoTrackSubscriptionFailed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, err error) {
	l.notify(VideoTrackSubscriptionFailed, p, publication, nil, err)
}

func (l *listener) OnVideoTrackUnpublished(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication) {
	l.notify(VideoTrackUnpublished, p, publication, nil, nil)
}

func (l *listener) OnVideoTrackUnsubscribed(p *participant.RemoteParticipant, publication *participant.RemoteTrackPublication, track *participant.RemoteTrack) {
	l.notify(VideoTrackUnsubscribed, p, publication, track, nil)
}
