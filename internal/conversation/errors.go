package conversation

import (
	"errors"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

var (
	// ErrChatUnavailable is returned when no language model produced a reply.
	ErrChatUnavailable = errors.New("conversation: chat unavailable")
	// ErrSessionIDRequired is returned when a turn arrives without a session id.
	ErrSessionIDRequired = errors.New("conversation: session id required")
	// ErrUnsupportedRole is returned for chat messages with an unknown role.
	ErrUnsupportedRole = errors.New("conversation: unsupported chat role")
)

// TurnError is returned by Respond when a turn fails after the session id was accepted. Stage
// is the stage the session was at before the turn, or empty when the session could not be loaded.
type TurnError struct {
	Stage qualification.Stage
	Err   error
}

func (e *TurnError) Error() string { return e.Err.Error() }

func (e *TurnError) Unwrap() error { return e.Err }
