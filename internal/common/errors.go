// Package common defines sentinel errors shared across the webappsync
// packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("closed")

	// Caller errors.
	ErrInvalidArgument = errors.New("invalid argument")
)
