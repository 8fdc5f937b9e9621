package domain

import "errors"

// Domain errors
var (
	// Validation errors
	ErrInvalidConcertWindow = errors.New("floor date must be after launch date")
	ErrInvalidMultiplier    = errors.New("max multiplier out of range")
	ErrInvalidBasePrice     = errors.New("base price must be greater than zero")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidTargetPrice   = errors.New("target price must be greater than zero")
	ErrUnknownCharity       = errors.New("charity cause does not belong to artist")
	ErrInvalidRole          = errors.New("invalid user role")

	// Inventory errors
	ErrSoldOut             = errors.New("section is sold out")
	ErrSeatCeilingExceeded = errors.New("release would exceed section capacity")

	// Sale window errors
	ErrSaleNotStarted      = errors.New("ticket sale has not started")
	ErrEventAlreadyStarted = errors.New("event has already started")

	// Lookup errors
	ErrConcertNotFound = errors.New("concert not found")
	ErrArtistNotFound  = errors.New("artist not found")
	ErrArenaNotFound   = errors.New("arena not found")
	ErrSectionNotFound = errors.New("section not found")

	// Authorization errors
	ErrForbidden = errors.New("operation not permitted for role")

	// Narrative errors never leave the purchase recorder
	ErrNarrativeUnavailable = errors.New("narrative provider unavailable")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrConcertNotFound) ||
		errors.Is(err, ErrArtistNotFound) ||
		errors.Is(err, ErrArenaNotFound) ||
		errors.Is(err, ErrSectionNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConcertWindow) ||
		errors.Is(err, ErrInvalidMultiplier) ||
		errors.Is(err, ErrInvalidBasePrice) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTargetPrice) ||
		errors.Is(err, ErrUnknownCharity) ||
		errors.Is(err, ErrInvalidRole)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrSeatCeilingExceeded) ||
		errors.Is(err, ErrSaleNotStarted) ||
		errors.Is(err, ErrEventAlreadyStarted)
}
