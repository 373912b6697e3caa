package engine

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidState    = errors.New("session already finished")
	ErrSessionBusy     = errors.New("another operation is in progress for this session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
