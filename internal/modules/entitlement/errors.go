package entitlement

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidPlan    = errors.New("invalid plan type")
	ErrDuplicate      = errors.New("utr number already exists")
	ErrNotFound       = errors.New("utr not found")
	ErrNotActivated   = errors.New("utr not activated")
	ErrExpired        = errors.New("access expired")
	ErrQuotaExhausted = errors.New("game limit reached")
)
