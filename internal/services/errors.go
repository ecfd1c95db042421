package services

import "errors"

// Sentinel errors shared across the service layer. Callers branch with
// errors.Is; messages wrap these with context via %w.
var (
	// Resolution errors
	ErrNoActionAvailable = errors.New("no action available")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// Fetch errors
	ErrFetchFailed      = errors.New("fetch failed")
	ErrFetchUnavailable = errors.New("fetch collaborator unavailable")

	// Compound group errors
	ErrNoPendingChange      = errors.New("no pending action change")
	ErrChangeAlreadyPending = errors.New("action change already pending confirmation")

	// Suggestion errors
	ErrSuggestionUnavailable = errors.New("suggestion provider unavailable")
	ErrSuggestionRejected    = errors.New("suggestion not in candidate list")

	// Connectivity errors
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrTimeout            = errors.New("operation timed out")
)

// IsRetryableError determines if an error should be retried
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrFetchFailed)
}

// IsPermanentError determines if an error is permanent and should not be retried
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNoActionAvailable) ||
		errors.Is(err, ErrSuggestionRejected)
}
