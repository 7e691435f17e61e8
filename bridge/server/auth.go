/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	kcoidc "stash.kopano.io/kc/libkcoidc"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/hub"
)

var errMissingToken = errors.New("missing bearer token")

// kcoidcLogger forwards OIDC provider diagnostics to logrus at debug level.
type kcoidcLogger struct {
	logger logrus.FieldLogger
	prefix string
}

func (l *kcoidcLogger) Printf(format string, args ...interface{}) {
	l.logger.Debugf(l.prefix+format, args...)
}

// bearerToken returns the token of the Authorization header, or the
// access_token query parameter since browsers cannot set headers on
// websocket requests.
func bearerToken(req *http.Request) (string, bool) {
	if auth := strings.SplitN(req.Header.Get("Authorization"), " ", 2); len(auth) == 2 && strings.EqualFold(auth[0], "Bearer") {
		return auth[1], auth[1] != ""
	}
	if token := req.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}

func newOIDCAuthenticator(oidcp *kcoidc.Provider) hub.AuthenticatorFunc {
	return func(req *http.Request) (string, error) {
		token, ok := bearerToken(req)
		if !ok {
			return "", errMissingToken
		}
		subject, _, _, err := oidcp.ValidateTokenString(req.Context(), token)
		if err != nil {
			return "", err
		}
		return subject, nil
	}
}
