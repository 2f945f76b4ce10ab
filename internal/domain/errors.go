package domain

import "errors"

// Domain errors - use these for consistent error handling
var (
	// Call session errors
	ErrCallInProgress = errors.New("another call is already in progress")
	ErrNoPendingOffer = errors.New("no pending offer for this call")
	ErrCallNotActive  = errors.New("no active call")
	ErrInvalidKind    = errors.New("unknown call kind")

	// Record errors
	ErrRecordNotFound = errors.New("call record not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// Token errors
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)
