package controller

import "errors"

// Synchronous control-surface errors (spec.md §4.9, §7).
var (
	ErrAlreadyRunning = errors.New("controller: testing flow already running for service")
	ErrNotFound       = errors.New("controller: no testing flow for service")
	ErrBadRequest     = errors.New("controller: bad request")
)
