package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/booking"
	"github.com/wolfman30/healthconnect/internal/catalog"
	"github.com/wolfman30/healthconnect/internal/communication"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// BookingsHandler drives booking sessions over HTTP. Sessions are scoped to
// the caller's session context.
type BookingsHandler struct {
	manager *booking.Manager
	catalog *catalog.Catalog
	rooms   *communication.Rooms
	loc     *time.Location
	now     func() time.Time
	logger  *logging.Logger
}

// BookingsConfig wires a BookingsHandler.
type BookingsConfig struct {
	Manager  *booking.Manager
	Catalog  *catalog.Catalog
	Rooms    *communication.Rooms
	Location *time.Location
	Clock    func() time.Time
	Logger   *logging.Logger
}

func NewBookingsHandler(cfg BookingsConfig) *BookingsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &BookingsHandler{
		manager: cfg.Manager,
		catalog: cfg.Catalog,
		rooms:   cfg.Rooms,
		loc:     cfg.Location,
		now:     cfg.Clock,
		logger:  cfg.Logger,
	}
}

type createBookingRequest struct {
	DoctorID    int `json:"doctorId"`
	TreatmentID int `json:"treatmentId"`
}

// updateBookingRequest changes the form. An empty date or timeSlot clears
// the selection.
type updateBookingRequest struct {
	AppointmentType *string               `json:"appointmentType"`
	Date            *string               `json:"date"`
	TimeSlot        *string               `json:"timeSlot"`
	Patient         *appointments.Patient `json:"patient"`
}

func (req updateBookingRequest) toUpdate(loc *time.Location) (booking.Update, error) {
	u := booking.Update{AppointmentType: req.AppointmentType, Patient: req.Patient}
	if req.Date != nil {
		raw := strings.TrimSpace(*req.Date)
		if raw == "" {
			u.ClearDate = true
		} else {
			day, err := time.ParseInLocation("2006-01-02", raw, loc)
			if err != nil {
				return booking.Update{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", booking.ErrDateUnavailable, raw)
			}
			u.Date = &day
		}
	}
	if req.TimeSlot != nil {
		if strings.TrimSpace(*req.TimeSlot) == "" {
			u.ClearTimeSlot = true
		} else {
			slot := *req.TimeSlot
			u.TimeSlot = &slot
		}
	}
	return u, nil
}

func (h *BookingsHandler) lookup(w http.ResponseWriter, r *http.Request) (*booking.Session, bool) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	s, err := h.manager.Get(chi.URLParam(r, "bookingID"), sc.ID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// List handles GET /bookings
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	now := h.now()
	sessions := h.manager.ListByOwner(sc.ID)
	views := make([]booking.View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.Snapshot(now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

// Create handles POST /bookings
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	var req createBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if (req.DoctorID > 0) == (req.TreatmentID > 0) {
		jsonError(w, "exactly one of doctorId or treatmentId is required", http.StatusBadRequest)
		return
	}

	var subject booking.Subject
	if req.DoctorID > 0 {
		doctor, err := h.catalog.Doctor(req.DoctorID)
		if err != nil {
			writeError(w, err)
			return
		}
		subject = booking.DoctorSubject(doctor)
	} else {
		treatment, err := h.catalog.Treatment(req.TreatmentID)
		if err != nil {
			writeError(w, err)
			return
		}
		subject = booking.TreatmentSubject(treatment)
	}

	s := h.manager.Create(r.Context(), sc.ID, subject)
	h.logger.Info("booking session created", "booking_id", s.ID(), "kind", string(subject.Kind))
	writeJSON(w, http.StatusCreated, s.Snapshot(h.now()))
}

// Get handles GET /bookings/{bookingID}
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

// Update handles PATCH /bookings/{bookingID}
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := req.toUpdate(h.loc)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Apply(u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

// Submit handles POST /bookings/{bookingID}/submit
func (h *BookingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if _, err := s.Submit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

// BookAgain handles POST /bookings/{bookingID}/book-again
func (h *BookingsHandler) BookAgain(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	next, err := h.manager.BookAgain(r.Context(), chi.URLParam(r, "bookingID"), sc.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, next.Snapshot(h.now()))
}

// Delete handles DELETE /bookings/{bookingID}
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err := h.manager.Delete(r.Context(), chi.URLParam(r, "bookingID"), sc.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatView struct {
	BookingID      string                  `json:"bookingId"`
	Title          string                  `json:"title"`
	DoctorName     string                  `json:"doctorName"`
	Specialization string                  `json:"specialization"`
	ScheduledAt    time.Time               `json:"scheduledAt"`
	Messages       []communication.Message `json:"messages"`
}

func newChatView(room *communication.ChatRoom) chatView {
	return chatView{
		BookingID:      room.BookingID(),
		Title:          room.Title(),
		DoctorName:     room.DoctorName(),
		Specialization: room.Specialization(),
		ScheduledAt:    room.ScheduledAt(),
		Messages:       room.Messages(),
	}
}

var errChatNotOpen = fmt.Errorf("%w: chat is not open", booking.ErrInvalidTransition)

// OpenChat handles POST /bookings/{bookingID}/chat. Reopening an open chat
// returns the same room.
func (h *BookingsHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if s.State() != booking.StateChatOpen {
		if err := s.OpenChat(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	rec, _ := s.Record()
	room := h.rooms.OpenChat(r.Context(), s.ID(), rec)
	writeJSON(w, http.StatusOK, newChatView(room))
}

// CloseChat handles DELETE /bookings/{bookingID}/chat
func (h *BookingsHandler) CloseChat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if s.State() != booking.StateChatOpen {
		writeError(w, errChatNotOpen)
		return
	}
	if err := s.CloseCommunication(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

func (h *BookingsHandler) openRoom(w http.ResponseWriter, r *http.Request) (*communication.ChatRoom, bool) {
	s, ok := h.lookup(w, r)
	if !ok {
		return nil, false
	}
	room, ok := h.rooms.Chat(s.ID())
	if !ok || s.State() != booking.StateChatOpen {
		writeError(w, errChatNotOpen)
		return nil, false
	}
	return room, true
}

// Messages handles GET /bookings/{bookingID}/chat/messages
func (h *BookingsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	room, ok := h.openRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": room.Messages()})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /bookings/{bookingID}/chat/messages
func (h *BookingsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.openRoom(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := room.Send(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// OpenVideo handles POST /bookings/{bookingID}/video
func (h *BookingsHandler) OpenVideo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if s.State() != booking.StateVideoOpen {
		if err := s.OpenVideo(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	lobby, ok := h.rooms.Video(s.ID())
	if !ok {
		rec, _ := s.Record()
		lobby = h.rooms.OpenVideo(s.ID(), rec)
	}
	writeJSON(w, http.StatusOK, lobby)
}

// CloseVideo handles DELETE /bookings/{bookingID}/video
func (h *BookingsHandler) CloseVideo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if s.State() != booking.StateVideoOpen {
		writeError(w, fmt.Errorf("%w: video is not open", booking.ErrInvalidTransition))
		return
	}
	if err := s.CloseCommunication(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

// isClosed reports whether err means the booking is gone.
func isClosed(err error) bool {
	return errors.Is(err, booking.ErrSessionClosed) || errors.Is(err, communication.ErrRoomClosed)
}
