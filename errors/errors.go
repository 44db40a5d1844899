package errors

import (
	stderrors "errors"
	"fmt"
)

// Is re-exports the standard errors.Is so callers of this package do not
// need a second aliased import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

var (
	ErrAuthenticationFailed  = fmt.Errorf("authentication failed")
	ErrNotAParticipant       = fmt.Errorf("not a participant of this conversation")
	ErrNotAuthorized         = fmt.Errorf("not authorized")
	ErrNotFound              = fmt.Errorf("not found")
	ErrInvalidReference      = fmt.Errorf("invalid reference")
	ErrInvalidPayload        = fmt.Errorf("invalid payload")
	ErrRecipientUnreachable  = fmt.Errorf("recipient is offline or unavailable")
	ErrCallerUnavailable     = fmt.Errorf("caller is no longer available")
	ErrGenerationFailed      = fmt.Errorf("reply generation failed")
	ErrInvalidCallTransition = fmt.Errorf("invalid call status transition")
)

// Reason maps an error to the short machine-readable string carried by
// scoped error events on the wire.
func Reason(err error) string {
	switch {
	case Is(err, ErrAuthenticationFailed):
		return "authentication-failed"
	case Is(err, ErrNotAParticipant):
		return "not-a-participant"
	case Is(err, ErrNotAuthorized):
		return "not-authorized"
	case Is(err, ErrNotFound):
		return "not-found"
	case Is(err, ErrInvalidReference):
		return "invalid-reference"
	case Is(err, ErrInvalidPayload):
		return "invalid-payload"
	case Is(err, ErrRecipientUnreachable):
		return "recipient-unreachable"
	case Is(err, ErrCallerUnavailable):
		return "caller-unavailable"
	case Is(err, ErrGenerationFailed):
		return "generation-failed"
	case Is(err, ErrInvalidCallTransition):
		return "invalid-call-transition"
	default:
		return "internal-error"
	}
}
