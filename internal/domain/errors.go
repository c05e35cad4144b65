package domain

import "errors"

var (
	// Exclusivity conflicts.
	ErrCabinHeld   = errors.New("cabin already has an active hold for this sailing")
	ErrCabinBooked = errors.New("cabin already has an active booking for this sailing")

	// State errors.
	ErrHoldNotActive    = errors.New("hold is not active")
	ErrHoldExpired      = errors.New("hold expired")
	ErrBookingNotActive = errors.New("booking is not active")
	ErrRequestResolved  = errors.New("release request already resolved")

	// Permission and policy errors.
	ErrNotHoldOwner         = errors.New("only the holder or an admin may release a hold")
	ErrOwnHold              = errors.New("cannot request release of your own hold")
	ErrExtensionsDisabled   = errors.New("hold extensions are disabled by the reserve policy")
	ErrExtensionsExhausted  = errors.New("hold extension limit reached")
	ErrPolicyNotAcknowledged = errors.New("cancellation policy must be acknowledged")

	// Lookup errors.
	ErrHoldNotFound               = errors.New("hold not found")
	ErrBookingNotFound            = errors.New("booking not found")
	ErrReleaseRequestNotFound     = errors.New("release request not found")
	ErrReservePolicyNotFound      = errors.New("no reserve policy configured")
	ErrCancellationPolicyNotFound = errors.New("cancellation policy not found")
	ErrNoTierMatched              = errors.New("no cancellation tier covers the requested days out")

	// Idempotency and input errors.
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidMode         = errors.New("invalid booking mode")
	ErrPricingUnavailable  = errors.New("pricing snapshot unavailable")
)
