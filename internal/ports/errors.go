package ports

import "errors"

// Standard application-level errors.
// Adapters and pipeline stages wrap their failures with these so callers can use errors.Is.
var (
	// Input Errors
	ErrParse      = errors.New("journal is not a valid non-empty JSON array")
	ErrFormat     = errors.New("journal format not recognized")
	ErrValidation = errors.New("journal failed validation")

	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price Feed Errors
	ErrFeedUnavailable   = errors.New("price feed is unavailable")
	ErrConnectionFailed  = errors.New("failed to connect to the price feed")
	ErrRateLimited       = errors.New("API rate limit exceeded")
	ErrNoPriceData       = errors.New("no price data returned")
	ErrInvalidPriceValue = errors.New("price value is not a positive number")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
