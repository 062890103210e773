package communication

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyMessage = errors.New("communication: message text required")
	ErrRoomClosed   = errors.New("communication: room closed")
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderDoctor Sender = "doctor"
)

// Message is one chat line.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// displayName prefixes the doctor's name with "Dr." unless it already
// carries the title.
func displayName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(strings.ToLower(name), "dr.") {
		return name
	}
	return "Dr. " + name
}
