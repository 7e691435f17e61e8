/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package server

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestKCOIDCLoggerLogsAtDebug(t *testing.T) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	oidcLogger := &kcoidcLogger{
		logger: l,
		prefix: "kcoidc debug ",
	}
	oidcLogger.Printf("provider %s ready", "https://iss.example.com")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected log entry")
	}
	if entry.Level != logrus.DebugLevel {
		t.Errorf("unexpected level: %v", entry.Level)
	}
	if entry.Message != "kcoidc debug provider https://iss.example.com ready" {
		t.Errorf("unexpected message: %q", entry.Message)
	}
}
