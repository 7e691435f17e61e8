/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"nhooyr.io/websocket"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
)

const videoTrackSubscribedMessage = `{
	"type": "notification",
	"notification": "videoTrackSubscribed",
	"participant": {"identity": "alice", "sid": "PA1"},
	"publication": {"sid": "MT1", "name": "cam", "enabled": true, "subscribed": true, "track": {"sid": "MT1", "name": "cam", "enabled": true}}
}`

type recordingSink struct {
	sync.Mutex
	events []*events.Event
	ch     chan struct{}
}

func (sink *recordingSink) Send(event string, payload map[string]interface{}) {
	sink.Lock()
	sink.events = append(sink.events, &events.Event{Name: event, Payload: payload})
	sink.Unlock()
	sink.ch <- struct{}{}
}

func newUpstreamServer(t *testing.T, messages ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		ws, err := websocket.Accept(rw, req, &websocket.AcceptOptions{
			Subprotocols: []string{Subprotocol},
		})
		if err != nil {
			t.Error(err)
			return
		}
		for _, message := range messages {
			if err := ws.Write(req.Context(), websocket.MessageText, []byte(message)); err != nil {
				t.Error(err)
				return
			}
		}
		ws.Close(websocket.StatusNormalClosure, "")
	}))
}

func TestClientForwardsNotifications(t *testing.T) {
	s := newUpstreamServer(t,
		`{"type":"hello"}`,
		`not json`,
		`{"type":"notification","notification":"participantConnected"}`,
		`{"type":"notification","notification":"audioTrackPublished","participant":{"identity":"alice","sid":"PA1"}}`,
		videoTrackSubscribedMessage,
	)
	defer s.Close()

	logger, _ := test.NewNullLogger()
	sink := &recordingSink{ch: make(chan struct{}, 10)}
	bridge, err := events.New(sink, &events.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	uri, _ := url.Parse(s.URL)
	c, err := NewClient(uri, bridge, &Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	select {
	case <-sink.ch:
	case <-ctx.Done():
		t.Fatal("no event received")
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(sink.events))
	}
	expected := map[string]interface{}{
		"remoteParticipant": map[string]interface{}{
			"identity": "alice",
			"sid":      "PA1",
		},
		"remoteVideoTrackPublication": map[string]interface{}{
			"sid":        "MT1",
			"name":       "cam",
			"enabled":    true,
			"subscribed": true,
			"remoteVideoTrack": map[string]interface{}{
				"sid":     "MT1",
				"name":    "cam",
				"enabled": true,
			},
		},
	}
	if !reflect.DeepEqual(sink.events[0].Payload, expected) {
		t.Errorf("unexpected payload: got %v want %v", sink.events[0].Payload, expected)
	}

	resource := c.Resource()
	if resource.Received != 2 {
		t.Errorf("unexpected received count: %d", resource.Received)
	}
	if resource.Skipped != 3 {
		t.Errorf("unexpected skipped count: %d", resource.Skipped)
	}
	if resource.Connected {
		t.Errorf("client must not be connected after start returned")
	}
}

func TestMessageAsNotificationError(t *testing.T) {
	message := &Message{
		Type:         MessageTypeNotification,
		Notification: "videoTrackSubscriptionFailed",
		Error:        nil,
	}
	n, err := message.AsNotification()
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != events.VideoTrackSubscriptionFailed || n.Err != nil {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestNewClientValidation(t *testing.T) {
	logger, _ := test.NewNullLogger()
	handler := events.HandlerFunc(func(*events.Notification) {})

	uri, _ := url.Parse("ftp://example.com")
	if _, err := NewClient(uri, handler, &Options{Logger: logger}); err == nil {
		t.Errorf("expected scheme error")
	}
	uri, _ = url.Parse("http://example.com")
	if _, err := NewClient(uri, nil, &Options{Logger: logger}); err == nil {
		t.Errorf("expected handler error")
	}
	if _, err := NewClient(uri, handler, nil); err == nil {
		t.Errorf("expected options error")
	}
}
