/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package hub

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/orcaman/concurrent-map"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
)

const (
	defaultConsumerQueueSize = 50
	defaultWriteTimeout      = 10 * time.Second

	// Subprotocol is the websocket subprotocol spoken with event consumers.
	Subprotocol = "kwmevents-protocol"
)

// AuthenticatorFunc checks a consumer request and returns the authenticated
// subject.
type AuthenticatorFunc func(req *http.Request) (string, error)

// Options define the settings of a Hub.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics prometheus.Registerer

	ConsumerQueueSize int
	WriteTimeout      time.Duration

	Authenticator AuthenticatorFunc
}

// Hub delivers events to the connected websocket consumers of the
// application layer.
type Hub struct {
	logger  logrus.FieldLogger
	options *Options

	consumers cmap.ConcurrentMap

	broadcasted prometheus.Counter
	slow        prometheus.Counter
	connected   prometheus.GaugeFunc
}

// New creates a Hub with the provided options.
func New(options *Options) (*Hub, error) {
	if options == nil || options.Logger == nil {
		return nil, errors.New("options with logger required")
	}
	if options.ConsumerQueueSize <= 0 {
		options.ConsumerQueueSize = defaultConsumerQueueSize
	}
	if options.WriteTimeout <= 0 {
		options.WriteTimeout = defaultWriteTimeout
	}

	h := &Hub{
		logger:  options.Logger.WithField("hub", "events"),
		options: options,

		consumers: cmap.New(),

		broadcasted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "events_broadcasted_total",
			Help:      "Total number of events broadcasted to consumers",
		}),
		slow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "consumers_slow_total",
			Help:      "Total number of consumers disconnected for being too slow",
		}),
	}
	h.connected = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "hub",
		Name:      "consumers_connected",
		Help:      "Number of currently connected consumers",
	}, func() float64 {
		return float64(h.consumers.Count())
	})

	if options.Metrics != nil {
		for _, c := range []prometheus.Collector{h.broadcasted, h.slow, h.connected} {
			if err := options.Metrics.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return h, nil
}

// Broadcast sends the provided event to all connected consumers. Consumers
// which cannot keep up are disconnected.
func (h *Hub) Broadcast(event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).WithField("event", event.Name).Errorln("failed to encode event")
		return
	}

	h.broadcasted.Inc()
	h.consumers.IterCb(func(id string, record interface{}) {
		c := record.(*consumer)
		if ok := c.send(data); !ok {
			if c.markSlow() {
				h.slow.Inc()
				h.logger.WithField("consumer", id).Warnln("event consumer too slow, disconnecting")
			}
		}
	})
}

// NumActive returns the number of connected consumers.
func (h *Hub) NumActive() uint64 {
	return uint64(h.consumers.Count())
}

// Consumers returns resources for all connected consumers.
func (h *Hub) Consumers() []*ConsumerResource {
	resources := make([]*ConsumerResource, 0)
	h.consumers.IterCb(func(id string, record interface{}) {
		resources = append(resources, record.(*consumer).Resource())
	})
	return resources
}

type consumer struct {
	sync.Mutex

	id      string
	subject string
	when    time.Time

	ch     chan []byte
	closed bool
	isSlow bool
}

func newConsumer(id, subject string, size int) *consumer {
	return &consumer{
		id:      id,
		subject: subject,
		when:    time.Now(),

		ch: make(chan []byte, size),
	}
}

func (c *consumer) send(data []byte) bool {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.ch <- data:
		return true
	default:
		return false
	}
}

// markSlow closes the consumer channel, returns true on the first call.
func (c *consumer) markSlow() bool {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.isSlow = true
	close(c.ch)
	return true
}

// ConsumerResource is the public representation of a connected consumer.
type ConsumerResource struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject,omitempty"`
	When    time.Time `json:"when"`
	Pending int       `json:"pending"`
}

func (c *consumer) Resource() *ConsumerResource {
	return &ConsumerResource{
		ID:      c.id,
		Subject: c.subject,
		When:    c.when,
		Pending: len(c.ch),
	}
}
