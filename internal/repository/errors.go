package repository

import "errors"

// Common ledger errors used across the bot flows.
var (
	ErrNotFound       = errors.New("NOT_FOUND")
	ErrAlreadyDecided = errors.New("ORDER_ALREADY_DECIDED")
)
