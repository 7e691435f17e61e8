/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package service

import (
	"net/http"

	api "stash.kopano.io/kwm/kwmeventbridge/bridge/api-v0"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
)

// HTTPParticipantsHandler lists the remote participants of the directory or
// returns a single one, including their video track publications.
func (h *HTTPService) HTTPParticipantsHandler(rw http.ResponseWriter, req *http.Request) {
	sid, _ := api.GetRequestVar(req, "sid")

	var resource interface{}
	if sid == "" {
		participants := h.services.Directory.Participants()
		values := make([]interface{}, 0, len(participants))
		for _, p := range participants {
			values = append(values, events.ParticipantToMap(p, false))
		}
		resource = api.NewCollectionResource(values, req, nil)
	} else {
		p, ok := h.services.Directory.Participant(sid)
		if !ok {
			if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
				"ErrorMessageParticipantNotfound",
				"The specified participant was not found",
				api.ErrNotFound,
			)); writeErr != nil {
				h.logger.WithError(writeErr).Errorln("failed to write json error")
			}
			return
		}
		resource = api.NewItemResource(events.ParticipantToMap(p, false), req)
	}

	if writeErr := api.WriteResourceAsJSON(rw, resource); writeErr != nil {
		h.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}
