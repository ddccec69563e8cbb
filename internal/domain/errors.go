package domain

import "errors"

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrMatchNotFound          = errors.New("match not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrClientRequest          = errors.New("rejected by upstream")
	ErrRetriesExhausted       = errors.New("retries exhausted")
)
