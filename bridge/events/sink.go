/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package events

// Sink receives named events. Implementations must be safe to be called from
// any goroutine, Send must not retain the payload after the event has been
// delivered.
type Sink interface {
	Send(event string, payload map[string]interface{})
}

// SinkFunc is an adapter to use ordinary functions as Sink.
type SinkFunc func(event string, payload map[string]interface{})

// Send calls f(event, payload).
func (f SinkFunc) Send(event string, payload map[string]interface{}) {
	f(event, payload)
}

// Event is a named event as delivered to the application layer.
type Event struct {
	Name    string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}
