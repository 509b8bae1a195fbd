package domain

import "errors"

// Domain error taxonomy. Services return these (possibly wrapped); the
// transport layer maps them to response statuses.
var (
	ErrValidation         = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
	ErrPaymentRejected    = errors.New("payment not verified")
	ErrStateConflict      = errors.New("operation invalid for current status")
	ErrInsufficientStock  = errors.New("insufficient stock")
)
