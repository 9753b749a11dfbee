package errs

import "errors"

// Sentinel errors shared across usecase layers.
var (
	// Validation
	ErrValidation = errors.New("validation error")

	// Lookups
	ErrResourceNotFound = errors.New("resource not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrUserNotFound     = errors.New("user not found")

	// Scheduling conflicts
	ErrBookingConflict = errors.New("booking conflict")
	ErrVersionConflict = errors.New("optimistic version conflict")

	// Authorization
	ErrNotOwner = errors.New("requester does not own booking")

	// Cancellation guards
	ErrCancellationWindow = errors.New("cancellation window has passed")
	ErrNotCancellable     = errors.New("booking is not cancellable")

	// Payment
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrPaymentUnavailable = errors.New("payment provider temporarily unavailable")

	// Saga compensation failures require manual reconciliation and must
	// never be swallowed.
	ErrCompensationFailed = errors.New("compensation failed")

	// Locking
	ErrLockNotAcquired = errors.New("distributed lock not acquired")

	// Operation failures
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
