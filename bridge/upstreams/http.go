/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstreams

import (
	"net/http"

	api "stash.kopano.io/kwm/kwmeventbridge/bridge/api-v0"
)

// HTTPClientsHandler lists upstream clients or returns a single one.
func (m *Manager) HTTPClientsHandler(rw http.ResponseWriter, req *http.Request) {
	clientID, _ := api.GetRequestVar(req, "clientID")

	var resource interface{}
	if clientID == "" {
		var clients []interface{}

		for _, client := range m.Clients() {
			clients = append(clients, client)
		}

		resource = api.NewCollectionResource(clients, req, nil)
	} else {
		client := func() interface{} {
			for _, c := range m.clients {
				if c.ID() == clientID {
					return c.Resource()
				}
			}
			return nil
		}()
		if client == nil {
			if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
				"ErrorMessageClientNotfound",
				"The specified client was not found",
				api.ErrNotFound,
			)); writeErr != nil {
				m.logger.WithError(writeErr).Errorln("failed to write json error")
			}
			return
		}
		resource = api.NewItemResource(client, req)
	}

	if writeErr := api.WriteResourceAsJSON(rw, resource); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}
