/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstreams

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	cfg "stash.kopano.io/kwm/kwmeventbridge/config"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
	"stash.kopano.io/kwm/kwmeventbridge/internal/upstream"
)

const reconnectInterval = 1 * time.Second

// Manager handles upstream notification clients.
type Manager struct {
	logger logrus.FieldLogger
	ctx    context.Context
	config *cfg.Config

	handler events.Handler

	wg      sync.WaitGroup
	clients []*upstream.Client
}

// NewManager creates a Manager which keeps a connection to each of the
// provided URIs, handing all received notifications to the provided handler.
func NewManager(ctx context.Context, config *cfg.Config, uris []*url.URL, handler events.Handler) (*Manager, error) {
	m := &Manager{
		logger: config.Logger.WithField("manager", "upstreams"),
		ctx:    ctx,
		config: config,

		handler: handler,
	}

	for _, uri := range uris {
		if c, err := m.connect(uri); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		} else {
			m.clients = append(m.clients, c)
		}
	}

	return m, nil
}

func (m *Manager) connect(uri *url.URL) (*upstream.Client, error) {
	logger := m.logger.WithField("url", uri)
	ctx := m.ctx
	config := m.config

	logger.Infoln("creating upstream client")
	c, err := upstream.NewClient(uri, m.handler, &upstream.Options{
		Config: config,

		HTTPClient: config.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go func() {
		defer func() {
			logger.Debugln("upstream connector stopped")
			m.wg.Done()
		}()
		for {
			logger.Infoln("connecting to upstream")
			startErr := c.Start(ctx) // Connect and read, this blocks.
			if startErr != nil && !errors.Is(startErr, context.Canceled) {
				logger.WithError(startErr).Warnln("upstream connection stopped with error, restart scheduled")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectInterval):
				logger.Infoln("reconnecting to upstream")
				// breaks and continues.
			}
		}
	}()
	return c, nil
}

// Wait blocks until all upstream connectors have stopped.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Clients returns the resources of all managed clients.
func (m *Manager) Clients() []*upstream.ClientResource {
	resources := make([]*upstream.ClientResource, 0, len(m.clients))
	for _, c := range m.clients {
		resources = append(resources, c.Resource())
	}
	return resources
}

// NumActive returns the number of currently connected upstream clients.
func (m *Manager) NumActive() uint64 {
	var active uint64
	for _, c := range m.clients {
		if c.Resource().Connected {
			active++
		}
	}
	return active
}
