package communication

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/healthconnect/pkg/logging"
)

const (
	DefaultAutoReply  = "Thank you for your message. I'll get back to you shortly."
	DefaultReplyDelay = time.Second

	subscriberBuffer = 16
)

// ChatConfig configures a ChatRoom.
type ChatConfig struct {
	BookingID      string
	DoctorName     string
	Specialization string
	ScheduledAt    time.Time
	AutoReply      string
	ReplyDelay     time.Duration
	Transcript     Transcript
	History        []Message
	Logger         *logging.Logger
	Now            func() time.Time
}

// ChatRoom is the text channel between a patient and the booked doctor.
// Every user message is answered by a canned doctor reply after the
// configured delay.
type ChatRoom struct {
	bookingID      string
	doctorName     string
	specialization string
	scheduledAt    time.Time
	autoReply      string
	replyDelay     time.Duration
	transcript     Transcript
	logger         *logging.Logger
	now            func() time.Time

	mu          sync.Mutex
	messages    []Message
	subscribers map[int]chan Message
	nextSub     int
	pending     map[uint64]*time.Timer
	nextReply   uint64
	closed      bool
}

func NewChatRoom(cfg ChatConfig) *ChatRoom {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if strings.TrimSpace(cfg.AutoReply) == "" {
		cfg.AutoReply = DefaultAutoReply
	}
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = DefaultReplyDelay
	}
	return &ChatRoom{
		bookingID:      cfg.BookingID,
		doctorName:     cfg.DoctorName,
		specialization: cfg.Specialization,
		scheduledAt:    cfg.ScheduledAt,
		autoReply:      cfg.AutoReply,
		replyDelay:     cfg.ReplyDelay,
		transcript:     cfg.Transcript,
		logger:         cfg.Logger.With("booking_id", cfg.BookingID),
		now:            cfg.Now,
		messages:       append([]Message(nil), cfg.History...),
		subscribers:    make(map[int]chan Message),
		pending:        make(map[uint64]*time.Timer),
	}
}

// Title is the heading shown above the conversation.
func (r *ChatRoom) Title() string { return "Chat with " + displayName(r.doctorName) }

func (r *ChatRoom) BookingID() string      { return r.bookingID }
func (r *ChatRoom) DoctorName() string     { return r.doctorName }
func (r *ChatRoom) Specialization() string { return r.specialization }
func (r *ChatRoom) ScheduledAt() time.Time { return r.scheduledAt }

// Send appends a user message and schedules the doctor's reply. Blank text
// is rejected with ErrEmptyMessage.
func (r *ChatRoom) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Message{}, ErrRoomClosed
	}
	msg := Message{ID: uuid.NewString(), Text: text, Sender: SenderUser, Timestamp: r.now()}
	r.appendLocked(msg)
	replyID := r.nextReply
	r.nextReply++
	r.pending[replyID] = time.AfterFunc(r.replyDelay, func() { r.reply(replyID) })
	r.mu.Unlock()

	r.persist(ctx, msg)
	return msg, nil
}

func (r *ChatRoom) reply(replyID uint64) {
	r.mu.Lock()
	delete(r.pending, replyID)
	if r.closed {
		r.mu.Unlock()
		return
	}
	msg := Message{ID: uuid.NewString(), Text: r.autoReply, Sender: SenderDoctor, Timestamp: r.now()}
	r.appendLocked(msg)
	r.mu.Unlock()

	r.persist(context.Background(), msg)
}

// appendLocked records msg and fans it out. Slow subscribers miss messages
// rather than block the room.
func (r *ChatRoom) appendLocked(msg Message) {
	r.messages = append(r.messages, msg)
	for id, ch := range r.subscribers {
		select {
		case ch <- msg:
		default:
			r.logger.Warn("communication: dropping chat message for slow subscriber", "subscriber", id)
		}
	}
}

func (r *ChatRoom) persist(ctx context.Context, msg Message) {
	if r.transcript == nil {
		return
	}
	if err := r.transcript.Append(ctx, r.bookingID, msg); err != nil {
		r.logger.Error("communication: failed to persist chat message", "error", err, "sender", msg.Sender)
	}
}

// Messages returns a copy of the conversation so far.
func (r *ChatRoom) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Subscribe streams messages appended after the call. The channel is closed
// when the room closes or cancel is called.
func (r *ChatRoom) Subscribe() (<-chan Message, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Message, subscriberBuffer)
	if r.closed {
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := r.subscribers[id]; ok {
				delete(r.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops pending replies and ends every subscription. It is safe to
// call more than once.
func (r *ChatRoom) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, timer := range r.pending {
		timer.Stop()
		delete(r.pending, id)
	}
	for id, ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, id)
	}
}

func (r *ChatRoom) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
