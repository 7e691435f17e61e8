/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	classPassThrough = "pass_through"
	classSuppressed  = "suppressed"
)

type bridgeMetrics struct {
	notifications *prometheus.CounterVec
	emitted       *prometheus.CounterVec
}

func newBridgeMetrics(registerer prometheus.Registerer) (*bridgeMetrics, error) {
	m := &bridgeMetrics{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "notifications_total",
			Help:      "Total number of handled remote participant notifications",
		}, []string{"notification", "class"}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "events_emitted_total",
			Help:      "Total number of events pushed to the event sink",
		}, []string{"event"}),
	}

	if registerer != nil {
		for _, c := range []prometheus.Collector{m.notifications, m.emitted} {
			if err := registerer.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
