package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrInternalServer     = errors.New("internal server error")

	// Trust-enforcement outcomes. These are expected policy denials,
	// not failures; handlers map them to 4xx with stable reason codes.
	ErrTokenInvalid            = errors.New("token is invalid, used, or expired")
	ErrActionRestricted        = errors.New("action is restricted for this account")
	ErrAccountSuspended        = errors.New("account is suspended")
	ErrInvalidStatusTransition = errors.New("invalid report status transition")
)
