package communication

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// RoomsConfig configures the Rooms registry.
type RoomsConfig struct {
	AutoReply  string
	ReplyDelay time.Duration
	MeetLink   string
	Transcript Transcript
	Location   *time.Location
	Logger     *logging.Logger
}

// Rooms tracks the open chat room or video lobby of each booking.
type Rooms struct {
	cfg    RoomsConfig
	logger *logging.Logger

	mu      sync.Mutex
	chats   map[string]*ChatRoom
	lobbies map[string]VideoLobby
}

func NewRooms(cfg RoomsConfig) *Rooms {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Rooms{
		cfg:     cfg,
		logger:  cfg.Logger,
		chats:   make(map[string]*ChatRoom),
		lobbies: make(map[string]VideoLobby),
	}
}

// OpenChat returns the booking's chat room, creating it when absent. A new
// room is seeded with any persisted transcript.
func (r *Rooms) OpenChat(ctx context.Context, bookingID string, rec appointments.Record) *ChatRoom {
	r.mu.Lock()
	if room, ok := r.chats[bookingID]; ok && !room.Closed() {
		r.mu.Unlock()
		return room
	}
	r.mu.Unlock()

	var history []Message
	if r.cfg.Transcript != nil {
		msgs, err := r.cfg.Transcript.List(ctx, bookingID, 0)
		if err != nil {
			r.logger.Warn("communication: failed to load chat transcript", "error", err, "booking_id", bookingID)
		}
		history = msgs
	}

	room := NewChatRoom(ChatConfig{
		BookingID:      bookingID,
		DoctorName:     rec.DoctorName,
		Specialization: rec.Specialization,
		ScheduledAt:    rec.ScheduledAt(r.cfg.Location),
		AutoReply:      r.cfg.AutoReply,
		ReplyDelay:     r.cfg.ReplyDelay,
		Transcript:     r.cfg.Transcript,
		History:        history,
		Logger:         r.logger,
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.chats[bookingID]; ok && !existing.Closed() {
		room.Close()
		return existing
	}
	r.chats[bookingID] = room
	return room
}

// Chat returns the open chat room for the booking.
func (r *Rooms) Chat(bookingID string) (*ChatRoom, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.chats[bookingID]
	if !ok || room.Closed() {
		return nil, false
	}
	return room, true
}

// OpenVideo builds and records the lobby for the booking.
func (r *Rooms) OpenVideo(bookingID string, rec appointments.Record) VideoLobby {
	lobby := NewVideoLobby(bookingID, rec, r.cfg.MeetLink, r.cfg.Location)
	r.mu.Lock()
	r.lobbies[bookingID] = lobby
	r.mu.Unlock()
	return lobby
}

// Video returns the open lobby for the booking.
func (r *Rooms) Video(bookingID string) (VideoLobby, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lobby, ok := r.lobbies[bookingID]
	return lobby, ok
}

// Close tears down whatever channel the booking has open.
func (r *Rooms) Close(bookingID string) {
	r.mu.Lock()
	room := r.chats[bookingID]
	delete(r.chats, bookingID)
	delete(r.lobbies, bookingID)
	r.mu.Unlock()
	if room != nil {
		room.Close()
	}
}

// CloseAll tears down every open channel.
func (r *Rooms) CloseAll() {
	r.mu.Lock()
	rooms := make([]*ChatRoom, 0, len(r.chats))
	for id, room := range r.chats {
		rooms = append(rooms, room)
		delete(r.chats, id)
	}
	r.lobbies = make(map[string]VideoLobby)
	r.mu.Unlock()
	for _, room := range rooms {
		room.Close()
	}
}

// Open reports how many channels are currently open.
func (r *Rooms) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chats) + len(r.lobbies)
}
