package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Vote precondition rejections. These are caller errors with stable reason
// codes, surfaced synchronously and never retried automatically.
var (
	ErrEntryNotLive    = errors.New("entry is not live")
	ErrWindowNotActive = errors.New("contest window is not active")
	ErrNoWindow        = errors.New("entry has no contest window")
)

// RejectionReason maps a vote precondition error to its wire reason code.
func RejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrEntryNotLive):
		return "ENTRY_NOT_LIVE", true
	case errors.Is(err, ErrWindowNotActive):
		return "WINDOW_NOT_ACTIVE", true
	case errors.Is(err, ErrNoWindow):
		return "NO_WINDOW", true
	default:
		return "", false
	}
}
