/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package service

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/bridge"
	api "stash.kopano.io/kwm/kwmeventbridge/bridge/api-v0"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/hub"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/odata"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/upstreams"
)

const (
	URIPrefix = "/api/kwm/v0"
)

// HTTPService binds the HTTP router with handlers for kwm API v0.
type HTTPService struct {
	logger   logrus.FieldLogger
	services *bridge.Services

	authenticator hub.AuthenticatorFunc
}

// NewHTTPService creates a new HTTPService  with the provided options. When
// authenticator is not nil, all resources require authentication.
func NewHTTPService(ctx context.Context, logger logrus.FieldLogger, services *bridge.Services, authenticator hub.AuthenticatorFunc) *HTTPService {
	return &HTTPService{
		logger:   logger,
		services: services,

		authenticator: authenticator,
	}
}

// WithAuthentication rejects requests which the accociated service's
// authenticator does not accept.
func (h *HTTPService) WithAuthentication(next http.Handler) http.Handler {
	if h.authenticator == nil {
		return next
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if _, authErr := h.authenticator(req); authErr != nil {
			h.logger.WithError(authErr).Debugln("resource request authentication failed")
			if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
				"ErrorMessageUnauthorized",
				"The request could not be authenticated",
				api.ErrUnauthorized,
			)); writeErr != nil {
				h.logger.WithError(writeErr).Errorln("failed to write json error")
			}
			return
		}
		next.ServeHTTP(rw, req)
	})
}

// AddRoutes configures the services HTTP end point routing on the provided
// context and router.
func (h *HTTPService) AddRoutes(ctx context.Context, router *mux.Router, chain alice.Chain) http.Handler {
	v0 := router.PathPrefix(URIPrefix).Subrouter()
	resources := chain.Append(h.WithAuthentication, odata.WithOData)

	if eventsHub, ok := h.services.Hub.(*hub.Hub); ok {
		r := v0.PathPrefix("/events").Subrouter()

		// /api/kwm/v0/events/websocket
		// /api/kwm/v0/events/consumers
		r.Handle("/websocket", chain.ThenFunc(eventsHub.HTTPWebsocketHandler))
		r.Handle("/consumers", resources.ThenFunc(eventsHub.HTTPConsumersHandler))
	}

	if manager, ok := h.services.Upstreams.(*upstreams.Manager); ok {
		r := v0.PathPrefix("/upstreams").Subrouter()

		// /api/kwm/v0/upstreams/clients
		// /api/kwm/v0/upstreams/clients/:client
		r.Handle("/clients", resources.ThenFunc(manager.HTTPClientsHandler))
		r.Handle("/clients/{clientID}", resources.ThenFunc(manager.HTTPClientsHandler))
	}

	if h.services.Directory != nil {
		// /api/kwm/v0/participants
		// /api/kwm/v0/participants/:participant
		v0.Handle("/participants", resources.ThenFunc(h.HTTPParticipantsHandler))
		v0.Handle("/participants/{sid}", resources.ThenFunc(h.HTTPParticipantsHandler))
	}

	return router
}

// NumActive returns the number of the currently active connections at the
// accociated HTTPService.
func (h *HTTPService) NumActive() (active uint64) {
	for _, service := range h.services.Services() {
		active += service.NumActive()
	}

	return active
}
