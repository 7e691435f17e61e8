/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"errors"
	"io/ioutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Options define the optional settings of a Bridge.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics prometheus.Registerer
}

// Bridge forwards video subscription lifecycle notifications of remote
// participants to a Sink and suppresses all other notifications. A Bridge
// keeps no state between notifications and is safe for concurrent use as long
// as its Sink is.
type Bridge struct {
	sink    Sink
	logger  logrus.FieldLogger
	metrics *bridgeMetrics
}

// New creates a Bridge which pushes events to the provided sink.
func New(sink Sink, options *Options) (*Bridge, error) {
	if sink == nil {
		return nil, errors.New("sink cannot be nil")
	}
	if options == nil {
		options = &Options{}
	}

	logger := options.Logger
	if logger == nil {
		l := logrus.New()
		l.Out = ioutil.Discard
		logger = l
	}

	metrics, err := newBridgeMetrics(options.Metrics)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		sink:    sink,
		logger:  logger.WithField("bridge", "events"),
		metrics: metrics,
	}, nil
}

// Handle handles the provided notification synchronously. Pass through
// notifications result in exactly one event at the sink, every notification
// results in exactly one log entry.
func (b *Bridge) Handle(n *Notification) {
	if n == nil {
		b.logger.Warnln("remote participant notification is nil, ignored")
		return
	}

	name := n.Kind.String()
	if !n.Kind.PassThrough() {
		b.metrics.notifications.WithLabelValues(name, classSuppressed).Inc()
		logger := b.logger.WithField("notification", name)
		if n.Err != nil {
			logger = logger.WithError(n.Err)
		}
		if _, known := kindNames[n.Kind]; !known {
			logger.Warnln("remote participant notification of unknown kind, ignored")
		} else {
			logger.Debugln("remote participant notification not forwarded")
		}
		return
	}

	b.metrics.notifications.WithLabelValues(name, classPassThrough).Inc()

	fields := logrus.Fields{
		"notification": name,
	}
	if n.Participant != nil {
		fields["participant_sid"] = n.Participant.SID
	}
	if n.Publication != nil {
		fields["track_sid"] = n.Publication.TrackSID
		fields["track_enabled"] = n.Publication.Enabled
		fields["track_subscribed"] = n.Publication.Subscribed
	}
	b.logger.WithFields(fields).Debugln("remote participant notification forwarded")

	b.sink.Send(name, map[string]interface{}{
		FieldRemoteParticipant:           absentIfNil(ParticipantToMap(n.Participant, true)),
		FieldRemoteVideoTrackPublication: absentIfNil(PublicationToMap(n.Publication)),
	})
	b.metrics.emitted.WithLabelValues(name).Inc()
}
