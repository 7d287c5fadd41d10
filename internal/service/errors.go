package service

import "errors"

// Sentinel errors returned to handlers. Validation failures are rejected
// synchronously and never retried; conflicts are resolved internally by
// returning the existing entity and never surface as errors.
var (
	ErrNotFound       = errors.New("entity not found")
	ErrSelfAction     = errors.New("cannot target yourself")
	ErrBlocked        = errors.New("interaction between these users is blocked")
	ErrNotAParty      = errors.New("user is not a party to this match")
	ErrMatchNotActive = errors.New("match is not active")
	ErrInvalidParent  = errors.New("parent message does not belong to this match")
	ErrNotReceiver    = errors.New("only the receiver may acknowledge a message")
	ErrMissingNonce   = errors.New("client nonce is required")
)
