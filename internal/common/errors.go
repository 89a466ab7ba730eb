// Package common defines shared sentinel errors used across the sync core.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote errors. ErrNoData is a benign empty result, ErrNetworkFailure
	// covers transport and decoding problems and is retryable.
	ErrNoData         = errors.New("no data returned from server")
	ErrNetworkFailure = errors.New("network failure")

	// Parsing / validation errors.
	ErrParse = errors.New("parse error")

	// Storage setup errors.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
