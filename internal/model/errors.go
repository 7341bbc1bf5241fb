package model

import "errors"

var (
	// ErrRemote marks transient failures talking to the ledger node, timeouts included.
	ErrRemote = errors.New("remote ledger error")
	// ErrDecode marks a malformed account payload.
	ErrDecode = errors.New("decode error")
	// ErrNotFound marks a missing account or unknown id.
	ErrNotFound = errors.New("not found")
)
