/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package utils

import (
	"encoding/base64"
	"net/url"

	"github.com/rogpeppe/fastuuid"
	"stash.kopano.io/kgol/rndm"
)

var guidGenerator = fastuuid.MustNewGenerator()

// AsWebsocketURL returns the provided http(s) URL string with the matching
// websocket scheme.
func AsWebsocketURL(uriString string) (string, error) {
	uri, err := url.Parse(uriString)
	if err != nil {
		return "", err
	}

	switch uri.Scheme {
	case "https":
		uri.Scheme = "wss"
	case "http":
		uri.Scheme = "ws"
	}

	return uri.String(), nil
}

// NewRandomGUID returns a new random hex encoded 128 bit identifier.
func NewRandomGUID() string {
	return guidGenerator.Hex128()
}

// NewRandomString returns a random URL safe string of length n.
func NewRandomString(n int) string {
	return base64.RawURLEncoding.EncodeToString(rndm.GenerateRandomBytes(base64.RawURLEncoding.DecodedLen(n)))
}
