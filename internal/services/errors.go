package services

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit exceeds main + bonus.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when a mutation amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidBalanceKind is returned for a balance kind outside main/bonus.
	ErrInvalidBalanceKind = errors.New("invalid balance kind")

	// ErrForbidden is returned when the actor is neither the order's client
	// nor its specialist for the requested operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned for any order status change not in
	// the transition table. The order and ledger are left untouched.
	ErrInvalidTransition = errors.New("invalid order transition")

	// ErrDisputeAlreadyOpen is returned when a dispute was already opened
	// on the order.
	ErrDisputeAlreadyOpen = errors.New("dispute already open")

	// ErrPlatformAccountMissing is returned when escrow release cannot
	// resolve the platform commission account. The release fails closed:
	// no funds move and the order stays in its pre-release status.
	ErrPlatformAccountMissing = errors.New("platform account missing")
)
