package booking

import "errors"

// State is a booking session's position in its lifecycle.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateChatOpen   State = "chat_open"
	StateVideoOpen  State = "video_open"
	StateClosed     State = "closed"
)

var (
	ErrInvalidTransition = errors.New("booking: transition not allowed in current state")
	ErrSessionClosed     = errors.New("booking: session closed")
	ErrNotFound          = errors.New("booking: session not found")
	ErrDateUnavailable   = errors.New("booking: date is not selectable")
	ErrSlotUnavailable   = errors.New("booking: time slot is not offered")
	ErrTypeNotSupported  = errors.New("booking: appointment type cannot change for treatments")
)

// Communicating reports whether the session is inside a chat or video screen.
func (s State) Communicating() bool {
	return s == StateChatOpen || s == StateVideoOpen
}
