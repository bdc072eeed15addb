// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrDuplicateEventID = errors.New("duplicate event id")
var ErrEventNotFound = errors.New("event not found")
var ErrUnencodablePayload = errors.New("payload cannot be encoded")
var ErrBlobNotFound = errors.New("blob not found")
