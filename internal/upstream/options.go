/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package upstream

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/config"
)

type Options struct {
	Config *config.Config

	Logger     logrus.FieldLogger
	HTTPClient *http.Client

	PingInterval time.Duration
}
