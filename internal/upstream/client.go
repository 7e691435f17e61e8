/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
	"stash.kopano.io/kwm/kwmeventbridge/internal/bpool"
	"stash.kopano.io/kwm/kwmeventbridge/internal/utils"
)

const (
	websocketMaxMessageSize = 1048576

	defaultPingInterval = 30 * time.Second

	// Subprotocol is the websocket subprotocol spoken with upstream sources.
	Subprotocol = "kwmnotifications-protocol"
)

// Client receives notifications from an upstream session process and hands
// them to a handler. Notifications are handled in the order they are
// received, one at a time.
type Client struct {
	sync.RWMutex

	id  string
	uri *url.URL

	options *Options
	logger  logrus.FieldLogger
	handler events.Handler

	wsCtx    context.Context
	wsCancel context.CancelFunc
	ws       *websocket.Conn

	connected int32
	received  uint64
	skipped   uint64
}

// NewClient creates a Client for the provided http(s) or ws(s) URL.
func NewClient(uri *url.URL, handler events.Handler, options *Options) (*Client, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	switch uri.Scheme {
	case "https", "http", "wss", "ws":
	default:
		return nil, errors.New("unknown URI scheme")
	}

	return &Client{
		id:  utils.NewRandomGUID(),
		uri: uri,

		options: options,
		logger:  options.Logger,
		handler: handler,
	}, nil
}

// ID returns the accociated client's id.
func (c *Client) ID() string {
	return c.id
}

// Start connects to the upstream websocket and reads notifications until the
// connection ends or the provided context is done.
func (c *Client) Start(ctx context.Context) error {
	uri, err := utils.AsWebsocketURL(c.uri.String())
	if err != nil {
		return fmt.Errorf("failed to parse upstream URL: %w", err)
	}

	wsCtx, wsCancel := context.WithCancel(ctx)
	defer wsCancel()

	options := &websocket.DialOptions{
		HTTPClient:   c.options.HTTPClient,
		Subprotocols: []string{Subprotocol},
	}
	ws, _, err := websocket.Dial(wsCtx, uri, options)
	if err != nil {
		return fmt.Errorf("failed to connect upstream websocket: %w", err)
	}
	ws.SetReadLimit(websocketMaxMessageSize)

	c.Lock()
	c.wsCtx, c.wsCancel, c.ws = wsCtx, wsCancel, ws
	c.Unlock()
	atomic.StoreInt32(&c.connected, 1)
	defer atomic.StoreInt32(&c.connected, 0)

	errCh := make(chan error, 1)

	go func() {
		c.logger.Infoln("upstream connection established")
		readPumpErr := c.readPump(wsCtx, ws) // This blocks.
		errCh <- readPumpErr                 // Always send result, to unblock cleanup.
	}()
	go c.pingPump(wsCtx, ws)

	err = <-errCh
	ws.Close(websocket.StatusNormalClosure, "")

	return err
}

func (c *Client) readPump(ctx context.Context, ws *websocket.Conn) error {
	var mt websocket.MessageType
	var reader io.Reader
	var b *bytes.Buffer
	var err error
	for {
		mt, reader, err = ws.Reader(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.logger.WithField("status_code", websocket.CloseStatus(err)).Debugln("upstream connection close")
				return nil
			}
			c.logger.WithError(err).Errorln("upstream connection failed to get reader")
			return err
		}

		b = bpool.Get()
		if _, err = b.ReadFrom(reader); err != nil {
			bpool.Put(b)
			return fmt.Errorf("upstream reader read error: %w", err)
		}

		switch mt {
		case websocket.MessageText:
		default:
			bpool.Put(b)
			c.logger.WithField("message_type", mt).Warnln("upstream connection received unknown websocket message type")
			continue
		}

		message := &Message{}
		err = json.Unmarshal(b.Bytes(), message)
		bpool.Put(b)
		if err != nil {
			atomic.AddUint64(&c.skipped, 1)
			c.logger.WithError(err).Errorln("upstream websocket message parse error")
			continue
		}

		switch message.Type {
		case MessageTypeNotification:
			c.handleNotificationMessage(message)

		default:
			atomic.AddUint64(&c.skipped, 1)
			c.logger.WithField("type", message.Type).Warnln("upstream connection received unknown message type")
			continue
		}
	}
}

func (c *Client) handleNotificationMessage(message *Message) {
	n, err := message.AsNotification()
	if err != nil {
		atomic.AddUint64(&c.skipped, 1)
		c.logger.WithError(err).Warnln("upstream notification skipped")
		return
	}

	atomic.AddUint64(&c.received, 1)
	c.handler.Handle(n)
}

func (c *Client) pingPump(ctx context.Context, ws *websocket.Conn) {
	interval := c.options.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.WithError(err).Warnln("failed to ping upstream websocket")
				}
				return
			}
		}
	}
}

// Close disconnects the accociated client.
func (c *Client) Close() error {
	c.RLock()
	cancel := c.wsCancel
	c.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// ClientResource is the public representation of a Client.
type ClientResource struct {
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Connected bool   `json:"connected"`
	Received  uint64 `json:"received"`
	Skipped   uint64 `json:"skipped"`
}

// Resource returns the ClientResource of the accociated client.
func (c *Client) Resource() *ClientResource {
	return &ClientResource{
		ID:        c.id,
		URI:       c.uri.String(),
		Connected: atomic.LoadInt32(&c.connected) == 1,
		Received:  atomic.LoadUint64(&c.received),
		Skipped:   atomic.LoadUint64(&c.skipped),
	}
}
