/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package eventq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
)

const defaultSize = 100

// OverflowPolicy defines what Send does when the queue is full.
type OverflowPolicy int

// Supported overflow policies.
const (
	OverflowBlock OverflowPolicy = iota
	OverflowDrop
)

func (policy OverflowPolicy) String() string {
	switch policy {
	case OverflowBlock:
		return "block"
	case OverflowDrop:
		return "drop"
	}
	return "unknown"
}

// ParseOverflowPolicy returns the policy with the provided name.
func ParseOverflowPolicy(name string) (OverflowPolicy, error) {
	switch strings.ToLower(name) {
	case "", "block":
		return OverflowBlock, nil
	case "drop":
		return OverflowDrop, nil
	}
	return OverflowBlock, errors.New("unknown overflow policy")
}

// Options define the settings of a Queue.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics prometheus.Registerer

	Size   int
	Policy OverflowPolicy
}

// Queue is an events.Sink which can be written from any goroutine and is
// drained in order by exactly one consumer.
type Queue struct {
	logger logrus.FieldLogger
	policy OverflowPolicy

	ch        chan *events.Event
	closed    chan struct{}
	closeOnce sync.Once
	running   chan struct{}

	enqueued prometheus.Counter
	dropped  prometheus.Counter
}

// New creates a Queue with the provided options.
func New(options *Options) (*Queue, error) {
	if options == nil || options.Logger == nil {
		return nil, errors.New("options with logger required")
	}

	size := options.Size
	if size <= 0 {
		size = defaultSize
	}

	q := &Queue{
		logger: options.Logger.WithField("queue", "events"),
		policy: options.Policy,

		ch:      make(chan *events.Event, size),
		closed:  make(chan struct{}),
		running: make(chan struct{}, 1),

		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queue",
			Name:      "events_enqueued_total",
			Help:      "Total number of events accepted by the event queue",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queue",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped by the event queue",
		}),
	}

	if options.Metrics != nil {
		for _, c := range []prometheus.Collector{q.enqueued, q.dropped} {
			if err := options.Metrics.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return q, nil
}

// Send implements events.Sink.
func (q *Queue) Send(name string, payload map[string]interface{}) {
	event := &events.Event{
		Name:    name,
		Payload: payload,
	}

	select {
	case <-q.closed:
		q.drop(event, "queue closed")
		return
	default:
	}

	switch q.policy {
	case OverflowDrop:
		select {
		case q.ch <- event:
			q.enqueued.Inc()
		default:
			q.drop(event, "queue full")
		}

	default:
		select {
		case q.ch <- event:
			q.enqueued.Inc()
		case <-q.closed:
			q.drop(event, "queue closed")
		}
	}
}

func (q *Queue) drop(event *events.Event, reason string) {
	q.dropped.Inc()
	q.logger.WithFields(logrus.Fields{
		"event":  event.Name,
		"reason": reason,
	}).Warnln("event dropped")
}

// Run delivers queued events in order to the provided consume function until
// the context is done or the queue is closed. Only one Run may be active.
func (q *Queue) Run(ctx context.Context, consume func(*events.Event)) error {
	select {
	case q.running <- struct{}{}:
	default:
		return errors.New("queue already has a consumer")
	}
	defer func() {
		<-q.running
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.closed:
			return nil
		case event := <-q.ch:
			consume(event)
		}
	}
}

// Len returns the number of currently queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close closes the accociated queue. Run returns and further events are
// dropped.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
	return nil
}
