/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstream

import (
	"fmt"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
	"stash.kopano.io/kwm/kwmeventbridge/internal/participant"
)

// Message types of the upstream notification protocol.
const (
	MessageTypeNotification = "notification"
)

// Message is the container for upstream websocket messages.
type Message struct {
	Type string `json:"type"`

	Notification string                              `json:"notification,omitempty"`
	Participant  *participant.RemoteParticipant      `json:"participant,omitempty"`
	Publication  *participant.RemoteTrackPublication `json:"publication,omitempty"`
	Track        *participant.RemoteTrack            `json:"track,omitempty"`
	Error        *participant.TrackError             `json:"error,omitempty"`
}

// AsNotification converts the accociated message into a Notification.
func (message *Message) AsNotification() (*events.Notification, error) {
	kind, ok := events.ParseKind(message.Notification)
	if !ok {
		return nil, fmt.Errorf("unknown notification: %v", message.Notification)
	}

	n := &events.Notification{
		Kind:        kind,
		Participant: message.Participant,
		Publication: message.Publication,
		Track:       message.Track,
	}
	if message.Publication != nil && message.Publication.Kind == "" {
		message.Publication.Kind = kind.TrackKind()
	}
	if message.Error != nil {
		n.Err = message.Error
	}

	return n, nil
}
