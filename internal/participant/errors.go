/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package participant

import (
	"fmt"
)

// TrackError carries the detail of a failed track subscription.
type TrackError struct {
	Code    int    `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// NewTrackError creates a TrackError with the provided values.
func NewTrackError(code int, message string) *TrackError {
	return &TrackError{
		Code:    code,
		Message: message,
	}
}

func (err *TrackError) Error() string {
	return fmt.Sprintf("track error %d: %s", err.Code, err.Message)
}

// Well known track error codes.
const (
	ErrorCodeUnspecified      = 0
	ErrorCodeConnectionFailed = 53405
	ErrorCodeTrackUnsupported = 53410
)
