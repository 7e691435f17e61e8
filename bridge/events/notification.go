/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

// Kind identifies a remote participant lifecycle notification.
type Kind int

// Remote participant notifications.
const (
	KindUnknown Kind = iota

	AudioTrackDisabled
	AudioTrackEnabled
	AudioTrackPublished
	AudioTrackSubscribed
	AudioTrackSubscriptionFailed
	AudioTrackUnpublished
	AudioTrackUnsubscribed

	DataTrackPublished
	DataTrackSubscribed
	DataTrackSubscriptionFailed
	DataTrackUnpublished
	DataTrackUnsubscribed

	VideoTrackDisabled
	VideoTrackEnabled
	VideoTrackPublished
	VideoTrackSubscribed
	VideoTrackSubscriptionFailed
	VideoTrackUnpublished
	VideoTrackUnsubscribed
)

var kindNames = map[Kind]string{
	AudioTrackDisabled:           "audioTrackDisabled",
	AudioTrackEnabled:            "audioTrackEnabled",
	AudioTrackPublished:          "audioTrackPublished",
	AudioTrackSubscribed:         "audioTrackSubscribed",
	AudioTrackSubscriptionFailed: "audioTrackSubscriptionFailed",
	AudioTrackUnpublished:        "audioTrackUnpublished",
	AudioTrackUnsubscribed:       "audioTrackUnsubscribed",

	DataTrackPublished:          "dataTrackPublished",
	DataTrackSubscribed:         "dataTrackSubscribed",
	DataTrackSubscriptionFailed: "dataTrackSubscriptionFailed",
	DataTrackUnpublished:        "dataTrackUnpublished",
	DataTrackUnsubscribed:       "dataTrackUnsubscribed",

	VideoTrackDisabled:           "videoTrackDisabled",
	VideoTrackEnabled:            "videoTrackEnabled",
	VideoTrackPublished:          "videoTrackPublished",
	VideoTrackSubscribed:         "videoTrackSubscribed",
	VideoTrackSubscriptionFailed: "videoTrackSubscriptionFailed",
	VideoTrackUnpublished:        "videoTrackUnpublished",
	VideoTrackUnsubscribed:       "videoTrackUnsubscribed",
}

var kindsByName map[string]Kind

func init() {
	kindsByName = make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		kindsByName[name] = kind
	}
}

func (kind Kind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return "unknown"
}

// ParseKind returns the Kind with the provided name.
func ParseKind(name string) (Kind, bool) {
	kind, ok := kindsByName[name]
	return kind, ok
}

// Kinds returns all known notification kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for kind := AudioTrackDisabled; kind <= VideoTrackUnsubscribed; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

// PassThrough reports whether notifications of the accociated kind are
// forwarded to the event sink. All other kinds are suppressed.
func (kind Kind) PassThrough() bool {
	switch kind {
	case VideoTrackSubscribed, VideoTrackUnsubscribed:
		return true
	default:
		return false
	}
}

// TrackKind returns the track kind the notification is about.
func (kind Kind) TrackKind() participant.TrackKind {
	switch {
	case kind >= AudioTrackDisabled && kind <= AudioTrackUnsubscribed:
		return participant.TrackKindAudio
	case kind >= DataTrackPublished && kind <= DataTrackUnsubscribed:
		return participant.TrackKindData
	case kind >= VideoTrackDisabled && kind <= VideoTrackUnsubscribed:
		return participant.TrackKindVideo
	}
	return ""
}

// Notification is a single remote participant lifecycle notification. The
// referenced values are snapshots owned by the caller, they are only read
// while the notification is handled.
type Notification struct {
	Kind Kind

	Participant *participant.RemoteParticipant
	Publication *participant.RemoteTrackPublication
	Track       *participant.RemoteTrack

	Err error
}

// Handler handles notifications. Implementations must be safe to be called
// from any goroutine.
type Handler interface {
	Handle(*Notification)
}

// HandlerFunc is an adapter to use ordinary functions as Handler.
type HandlerFunc func(*Notification)

// Handle calls f(n).
func (f HandlerFunc) Handle(n *Notification) {
	f(n)
}
