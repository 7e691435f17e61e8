/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package bpool

import (
	"bytes"
	"testing"
)

func TestPutResetsBuffer(t *testing.T) {
	b := Get()
	b.WriteString("videoTrackSubscribed")
	Put(b)

	b = Get()
	if b.Len() != 0 {
		t.Errorf("pooled buffer must be empty, got %d bytes", b.Len())
	}
	Put(b)
}

func TestPutDropsOversizedBuffers(t *testing.T) {
	b := bytes.NewBuffer(make([]byte, 0, maxPooledSize+1))
	b.WriteString("data")
	Put(b)

	if b.Len() == 0 {
		t.Errorf("oversized buffer must not be reset")
	}
}
