package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

var tracer = otel.Tracer("healthconnect.internal.booking")

const DefaultSubmitTimeout = 20 * time.Second

// Backend persists confirmed bookings.
type Backend interface {
	CreateAppointment(ctx context.Context, appt backend.Appointment) error
	CreateTreatmentBooking(ctx context.Context, booking backend.TreatmentBooking) error
}

// Config carries the collaborators shared by every session.
type Config struct {
	Backend       Backend
	Prior         PriorLookup
	SubmitTimeout time.Duration
	PollInterval  time.Duration
	Location      *time.Location
	Clock         func() time.Time
	Observer      Observer
	Logger        *logging.Logger
}

func (c Config) withDefaults() Config {
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	return c
}

// Session is the lifecycle of one booking from form entry through
// confirmation and the optional chat or video screen. Each session owns its
// state exclusively.
type Session struct {
	id        string
	owner     string
	subject   Subject
	createdAt time.Time
	cfg       Config
	logger    *logging.Logger

	mu        sync.Mutex
	state     State
	draft     Draft
	record    *appointments.Record
	lastError string
	watcher   *Watcher
}

// NewSession starts a session in Editing.
func NewSession(id, owner string, subject Subject, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:        id,
		owner:     owner,
		subject:   subject,
		createdAt: cfg.Clock(),
		cfg:       cfg,
		logger:    cfg.Logger.With("booking_id", id, "kind", string(subject.Kind)),
		state:     StateEditing,
		draft:     newDraft(subject.Kind),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Owner() string        { return s.owner }
func (s *Session) Subject() Subject     { return s.subject }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) ref() Ref {
	return Ref{ID: s.id, Owner: s.owner, Kind: s.subject.Kind, Subject: s.subject.Name()}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

// Record returns the confirmed booking, if any.
func (s *Session) Record() (appointments.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return appointments.Record{}, false
	}
	return *s.record, true
}

// Watcher returns the access watcher of a confirmed chat or video booking.
func (s *Session) Watcher() *Watcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher
}

// Apply changes the form atomically. Only Editing sessions accept changes.
func (s *Session) Apply(u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.state != StateEditing {
		return fmt.Errorf("%w: cannot edit in %s", ErrInvalidTransition, s.state)
	}
	next, err := s.draft.apply(u, s.subject.Kind, s.cfg.Clock(), s.cfg.Location)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

func (s *Session) SetAppointmentType(value string) error {
	return s.Apply(Update{AppointmentType: &value})
}

func (s *Session) SetDate(date time.Time) error {
	return s.Apply(Update{Date: &date})
}

func (s *Session) SetTimeSlot(label string) error {
	return s.Apply(Update{TimeSlot: &label})
}

func (s *Session) SetPatient(p appointments.Patient) error {
	return s.Apply(Update{Patient: &p})
}

// prefill copies patient details into an untouched form.
func (s *Session) prefill(p appointments.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing || s.draft.Patient != (appointments.Patient{}) {
		return
	}
	if _, err := appointments.ParseGender(string(p.Gender)); err != nil {
		p.Gender = ""
	}
	s.draft.Patient = p
}

// Submit validates the form and persists it through the backend. The call
// runs with the configured timeout on a context detached from ctx, so a
// caller that goes away does not abort an in-flight submission. Any backend
// failure returns the session to Editing with a *TransportError.
func (s *Session) Submit(ctx context.Context) (appointments.Record, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return appointments.Record{}, ErrSessionClosed
	}
	if s.state != StateEditing {
		state := s.state
		s.mu.Unlock()
		return appointments.Record{}, fmt.Errorf("%w: cannot submit in %s", ErrInvalidTransition, state)
	}
	if missing := s.draft.missingSchedule(); len(missing) > 0 {
		verr := appointments.MissingInformationFor(s.subject.Kind, missing...)
		s.lastError = verr.Message
		s.mu.Unlock()
		s.cfg.Observer.BookingFailed(ctx, s.ref(), verr, 0)
		return appointments.Record{}, verr
	}
	if s.draft.dateStale(s.subject.Kind, s.cfg.Clock(), s.cfg.Location) {
		verr := &appointments.ValidationError{Fields: []string{"date"}, Message: appointments.DateNoLongerAvailableMessage}
		s.lastError = verr.Message
		s.mu.Unlock()
		s.cfg.Observer.BookingFailed(ctx, s.ref(), verr, 0)
		return appointments.Record{}, verr
	}
	if missing := s.draft.Patient.MissingFields(); len(missing) > 0 {
		verr := &appointments.ValidationError{Fields: missing, Message: appointments.MissingPatientMessage}
		s.lastError = verr.Message
		s.mu.Unlock()
		s.cfg.Observer.BookingFailed(ctx, s.ref(), verr, 0)
		return appointments.Record{}, verr
	}
	rec := s.buildRecord()
	s.state = StateSubmitting
	s.lastError = ""
	s.mu.Unlock()

	started := s.cfg.Clock()
	detached := context.WithoutCancel(ctx)
	submitCtx, cancel := context.WithTimeout(detached, s.cfg.SubmitTimeout)
	op, err := s.send(submitCtx, rec)
	cancel()
	elapsed := s.cfg.Clock().Sub(started)

	if err != nil {
		terr := &appointments.TransportError{Op: op, Status: backend.StatusCode(err), Err: err}
		s.mu.Lock()
		if s.state == StateSubmitting {
			s.state = StateEditing
		}
		s.lastError = terr.UserMessage()
		s.mu.Unlock()
		s.logger.Warn("booking: submission failed", "error", err, "status", terr.Status)
		s.cfg.Observer.BookingFailed(detached, s.ref(), terr, elapsed)
		return appointments.Record{}, terr
	}

	rec.ConfirmedAt = s.cfg.Clock()
	s.mu.Lock()
	closed := s.state == StateClosed
	if !closed {
		s.state = StateConfirmed
		s.record = &rec
		s.startWatcherLocked()
	}
	s.mu.Unlock()

	s.logger.Info("booking: confirmed", "type", string(rec.AppointmentType), "price", rec.Price)
	s.cfg.Observer.BookingConfirmed(detached, s.ref(), rec, elapsed)
	if closed {
		s.logger.Warn("booking: session closed while submission was in flight")
		return rec, ErrSessionClosed
	}
	return rec, nil
}

func (s *Session) buildRecord() appointments.Record {
	d := s.draft
	return appointments.Record{
		Kind:            s.subject.Kind,
		DoctorID:        s.subject.DoctorID,
		DoctorName:      s.subject.DoctorName,
		Specialization:  s.subject.Specialization,
		TreatmentID:     s.subject.TreatmentID,
		TreatmentName:   s.subject.TreatmentName,
		Hospital:        s.subject.Hospital,
		AppointmentType: d.AppointmentType,
		Date:            *d.Date,
		TimeSlot:        *d.TimeSlot,
		Patient:         d.Patient,
		Price:           d.price(s.subject),
	}
}

func (s *Session) send(ctx context.Context, rec appointments.Record) (op string, err error) {
	ctx, span := tracer.Start(ctx, "booking.submit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op)
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("healthconnect.booking.id", s.id),
		attribute.String("healthconnect.booking.kind", string(rec.Kind)),
		attribute.String("healthconnect.booking.type", string(rec.AppointmentType)),
	)

	if s.cfg.Backend == nil {
		return "submit", errors.New("booking: no backend configured")
	}
	if rec.Kind == appointments.KindTreatment {
		return "create treatment booking", s.cfg.Backend.CreateTreatmentBooking(ctx, backend.NewTreatmentBooking(rec))
	}
	return "create appointment", s.cfg.Backend.CreateAppointment(ctx, backend.NewAppointment(rec))
}

// startWatcherLocked begins polling for chat and video bookings. Physical
// visits and treatments have nothing to gate.
func (s *Session) startWatcherLocked() {
	mode := s.record.AppointmentType.Mode()
	if mode == appointments.ModeNone {
		return
	}
	if s.watcher == nil {
		window, ok := appointments.AccessWindow(s.record.Date.In(s.cfg.Location), s.record.TimeSlot.Label())
		ref := s.ref()
		observer := s.cfg.Observer
		s.watcher = NewWatcher(WatcherConfig{
			BookingID: s.id,
			Mode:      mode,
			Window:    window,
			HasWindow: ok,
			Interval:  s.cfg.PollInterval,
			Now:       s.cfg.Clock,
			OnPoll:    func(u AccessUpdate) { observer.AccessPolled(ref, u) },
		})
	}
	s.watcher.Start()
}

func (s *Session) OpenChat(ctx context.Context) error {
	return s.openCommunication(ctx, appointments.ModeChat)
}

func (s *Session) OpenVideo(ctx context.Context) error {
	return s.openCommunication(ctx, appointments.ModeVideo)
}

// openCommunication re-checks the access window on every attempt.
func (s *Session) openCommunication(ctx context.Context, mode appointments.CommunicationMode) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateConfirmed || s.record.AppointmentType.Mode() != mode {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot open %s in %s", ErrInvalidTransition, mode, state)
	}
	now := s.cfg.Clock()
	rec := *s.record
	window, ok := appointments.AccessWindow(rec.Date.In(s.cfg.Location), rec.TimeSlot.Label())
	if !ok || !window.Contains(now) {
		s.mu.Unlock()
		denied := &appointments.AccessDeniedError{Mode: mode, Window: window, HasWindow: ok, Now: now}
		s.cfg.Observer.CommunicationDenied(ctx, s.ref(), denied)
		return denied
	}
	if mode == appointments.ModeChat {
		s.state = StateChatOpen
	} else {
		s.state = StateVideoOpen
	}
	// Stop under the lock so a racing CloseCommunication cannot restart
	// the loop first. OnPoll never takes s.mu.
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.mu.Unlock()

	s.cfg.Observer.CommunicationOpened(ctx, s.ref(), rec, mode)
	return nil
}

// CloseCommunication leaves the chat or video screen and resumes polling.
func (s *Session) CloseCommunication(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.state.Communicating() {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: no communication open in %s", ErrInvalidTransition, state)
	}
	mode := appointments.ModeChat
	if s.state == StateVideoOpen {
		mode = appointments.ModeVideo
	}
	s.state = StateConfirmed
	s.startWatcherLocked()
	s.mu.Unlock()

	s.cfg.Observer.CommunicationClosed(ctx, s.ref(), mode)
	return nil
}

// BookAgain returns a fresh Editing session for the same subject with every
// field cleared. The receiver is left as it was.
func (s *Session) BookAgain(newID string) (*Session, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == StateClosed {
		return nil, ErrSessionClosed
	}
	if state != StateConfirmed {
		return nil, fmt.Errorf("%w: cannot book again in %s", ErrInvalidTransition, state)
	}
	return NewSession(newID, s.owner, s.subject, s.cfg), nil
}

// Close tears the session down and stops its watcher. It is safe to call
// more than once.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	watcher := s.watcher
	s.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
	s.cfg.Observer.SessionClosed(ctx, s.ref())
}
