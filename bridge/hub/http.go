/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package hub

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	api "stash.kopano.io/kwm/kwmeventbridge/bridge/api-v0"
	"stash.kopano.io/kwm/kwmeventbridge/internal/utils"
)

// HTTPWebsocketHandler accepts websocket connections of event consumers and
// streams events to them until either side goes away.
func (h *Hub) HTTPWebsocketHandler(rw http.ResponseWriter, req *http.Request) {
	var subject string
	if h.options.Authenticator != nil {
		var authErr error
		subject, authErr = h.options.Authenticator(req)
		if authErr != nil {
			h.logger.WithError(authErr).Debugln("event consumer authentication failed")
			if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
				"ErrorMessageUnauthorized",
				"The request could not be authenticated",
				api.ErrUnauthorized,
			)); writeErr != nil {
				h.logger.WithError(writeErr).Errorln("failed to write json error")
			}
			return
		}
	}

	ws, err := websocket.Accept(rw, req, &websocket.AcceptOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		h.logger.WithError(err).Debugln("failed to accept event consumer websocket")
		return
	}

	c := newConsumer(utils.NewRandomGUID(), subject, h.options.ConsumerQueueSize)
	logger := h.logger.WithFields(logrus.Fields{
		"consumer": c.id,
		"remote":   req.RemoteAddr,
	})

	h.consumers.Set(c.id, c)
	logger.WithField("consumer_count", h.consumers.Count()).Infoln("event consumer connected")
	defer func() {
		h.consumers.Remove(c.id)
		logger.WithField("consumer_count", h.consumers.Count()).Infoln("event consumer disconnected")
	}()

	err = h.writePump(ws, c, req.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Debugln("event consumer write pump ended with error")
	}
}

func (h *Hub) writePump(ws *websocket.Conn, c *consumer, parent context.Context) error {
	// Consumers do not send anything, CloseRead handles control frames.
	ctx := ws.CloseRead(parent)

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusGoingAway, "")
			return ctx.Err()

		case data, ok := <-c.ch:
			if !ok {
				return ws.Close(websocket.StatusPolicyViolation, "consumer too slow")
			}
			writeCtx, cancel := context.WithTimeout(ctx, h.options.WriteTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// HTTPConsumersHandler lists the connected event consumers.
func (h *Hub) HTTPConsumersHandler(rw http.ResponseWriter, req *http.Request) {
	consumers := h.Consumers()
	values := make([]interface{}, 0, len(consumers))
	for _, c := range consumers {
		values = append(values, c)
	}

	if writeErr := api.WriteResourceAsJSON(rw, api.NewCollectionResource(values, req, nil)); writeErr != nil {
		h.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}
