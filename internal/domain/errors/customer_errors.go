package errors

import "errors"

var (
	// ErrCustomerNotFound indicates that the owner has no local customer record
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrNoSubscription indicates that the customer record has no subscription attached
	ErrNoSubscription = errors.New("no subscription")

	// ErrDuplicateOwner indicates a second record for the same owner
	ErrDuplicateOwner = errors.New("customer record already exists for owner")

	ErrMissingToken   = errors.New("missing card token")
	ErrMissingCardID  = errors.New("missing card id")
	ErrMissingPlanID  = errors.New("missing plan id")
	ErrMissingAmount  = errors.New("missing amount")
	ErrAmountTooLarge = errors.New("amount exceeds maximum")

	// ErrAccessDenied indicates the caller may not act on the target owner
	ErrAccessDenied = errors.New("access denied")
)
