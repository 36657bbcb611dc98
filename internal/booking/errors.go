package booking

import "errors"

// Common errors. Handlers map these onto HTTP statuses; none of them are
// retried internally.
var (
	ErrInvalidCapacity    = errors.New("min participants cannot exceed max participants")
	ErrNegativePrice      = errors.New("price per person cannot be negative")
	ErrInvalidPaymentType = errors.New("unknown payment model")
	ErrNoCandidates       = errors.New("at least one participant is required")

	ErrBookingNotFound     = errors.New("group booking not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvitationNotFound  = errors.New("invitation not found")

	ErrCapacityExceeded = errors.New("group booking is at maximum capacity")

	ErrInvitationExpired          = errors.New("invitation has expired")
	ErrInvitationAlreadyProcessed = errors.New("invitation has already been processed")

	ErrWrongPaymentModel = errors.New("operation does not match the booking's payment model")
	ErrAlreadyPaid       = errors.New("payment has already been captured")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrInsufficientHours = errors.New("insufficient package hours")
	ErrMissingPackage    = errors.New("customer package and hours are required for package payment")
	ErrMissingReference  = errors.New("external reference is required for external payment")
	ErrUnknownMethod     = errors.New("unknown payment method")

	ErrInvalidState = errors.New("booking state does not allow this operation")
)
