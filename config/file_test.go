/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testConfigFile = `
listen: 127.0.0.1:9779
log_level: debug
upstream_url:
  - http://127.0.0.1:8778/api/kwm/v2/notifications
  - https://kwm.example.com/api/kwm/v2/notifications
metrics:
  enabled: true
  listen: 127.0.0.1:6780
events:
  queue_size: 500
  queue_policy: drop
ice:
  network_types: [udp4]
  udp_port_range: "20000:30000"
  lite: true
`

func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "kwmeventbridge-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "kwmeventbridged.yaml")
	if err := ioutil.WriteFile(fn, []byte(testConfigFile), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFile(fn)
	if err != nil {
		t.Fatal(err)
	}

	if f.Listen != "127.0.0.1:9779" {
		t.Errorf("unexpected listen: %v", f.Listen)
	}
	if f.LogLevel != "debug" {
		t.Errorf("unexpected log level: %v", f.LogLevel)
	}
	if len(f.UpstreamURL) != 2 {
		t.Errorf("unexpected upstream urls: %v", f.UpstreamURL)
	}
	if !f.Metrics.Enabled || f.Metrics.Listen != "127.0.0.1:6780" {
		t.Errorf("unexpected metrics: %+v", f.Metrics)
	}
	if f.Events.QueueSize != 500 || f.Events.QueuePolicy != "drop" || f.Events.ConsumerQueueSize != 0 {
		t.Errorf("unexpected events: %+v", f.Events)
	}
	if !reflect.DeepEqual(f.ICE.NetworkTypes, []string{"udp4"}) || f.ICE.UDPPortRange != "20000:30000" || !f.ICE.Lite {
		t.Errorf("unexpected ice: %+v", f.ICE)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile("/nonexistent/kwmeventbridged.yaml"); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := ParseFile([]byte("listen: [")); err == nil {
		t.Errorf("expected error for invalid yaml")
	}
}
