/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package api

import (
	"fmt"
	"net/http"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/odata"
)

type CollectionResource struct {
	ODataContext  string `json:"@odata.context"`
	ODataNextLink string `json:"@odata.nextLink,omitempty"`

	Values Collection `json:"values"`
}

type Collection interface{}

// NewCollectionResource wraps the provided values for the provided request.
func NewCollectionResource(values []interface{}, req *http.Request, nextLink *string) *CollectionResource {
	if values == nil {
		values = make([]interface{}, 0)
	}
	resource := &CollectionResource{
		ODataContext: odataContext(req),

		Values: values,
	}
	if nextLink != nil {
		resource.ODataNextLink = *nextLink
	}
	return resource
}

type ItemResource struct {
	ODataContext string `json:"@odata.context"`
	Item
}

type Item interface{}

// NewItemResource wraps the provided item for the provided request.
func NewItemResource(item Item, req *http.Request) *ItemResource {
	return &ItemResource{
		ODataContext: odataContext(req),

		Item: item,
	}
}

func odataContext(req *http.Request) string {
	if o, ok := odata.FromContext(req.Context()); ok {
		return o.Context
	}
	return req.URL.Path
}

type ErrorResource struct {
	Error interface{}
}

type ErrorWithCodeAndMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	innerError error
}

func NewErrorWithCodeAndMessage(code string, message string, err error) *ErrorWithCodeAndMessage {
	return &ErrorWithCodeAndMessage{
		Code:    code,
		Message: message,

		innerError: err,
	}
}

func (err *ErrorWithCodeAndMessage) Error() string {
	code := err.Code
	message := err.Message
	if message == "" && err.innerError != nil {
		message = err.innerError.Error()
	}

	return fmt.Sprintf("%s: %s", code, message)
}

func (err *ErrorWithCodeAndMessage) Unwrap() error {
	return err.innerError
}
