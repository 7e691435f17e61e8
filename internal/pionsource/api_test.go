/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package pionsource

import (
	"reflect"
	"testing"

	"github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus/hooks/test"

	"stash.kopano.io/kwm/kwmeventbridge/config"
)

func TestParseNetworkTypes(t *testing.T) {
	types, err := ParseNetworkTypes([]string{"udp4", "UDP6", "tcp4", "tcp6"})
	if err != nil {
		t.Fatal(err)
	}
	expected := []webrtc.NetworkType{
		webrtc.NetworkTypeUDP4,
		webrtc.NetworkTypeUDP6,
		webrtc.NetworkTypeTCP4,
		webrtc.NetworkTypeTCP6,
	}
	if !reflect.DeepEqual(types, expected) {
		t.Errorf("unexpected types: %v", types)
	}

	if _, err := ParseNetworkTypes([]string{"udp4", "quic"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestNewAPI(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for _, cfg := range []*config.Config{
		{},
		{
			ICELite:                  true,
			ICEInterfaces:            []string{"lo"},
			ICENetworkTypes:          []string{"udp4"},
			ICEEphemeralUDPPortRange: [2]uint16{40000, 40100},
		},
	} {
		api, err := NewAPI(cfg, logger, false)
		if err != nil {
			t.Fatal(err)
		}
		if api == nil {
			t.Fatal("api is nil")
		}
	}

	_, err := NewAPI(&config.Config{ICEEphemeralUDPPortRange: [2]uint16{50000, 40000}}, logger, false)
	if err == nil {
		t.Error("expected error for invalid port range")
	}
}
