package booking

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeBackend struct {
	mu         sync.Mutex
	appts      []backend.Appointment
	treatments []backend.TreatmentBooking
	err        error
	block      chan struct{}
	started    chan struct{}
	ctxErr     error
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) CreateAppointment(ctx context.Context, appt backend.Appointment) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	f.appts = append(f.appts, appt)
	return f.err
}

func (f *fakeBackend) CreateTreatmentBooking(ctx context.Context, booking backend.TreatmentBooking) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treatments = append(f.treatments, booking)
	return f.err
}

type recordingObserver struct {
	NopObserver
	mu        sync.Mutex
	confirmed []appointments.Record
	failed    []error
	opened    []appointments.CommunicationMode
	closed    []appointments.CommunicationMode
	denied    []*appointments.AccessDeniedError
	polls     []AccessUpdate
	ended     []string
}

func (o *recordingObserver) BookingConfirmed(_ context.Context, _ Ref, rec appointments.Record, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.confirmed = append(o.confirmed, rec)
}

func (o *recordingObserver) BookingFailed(_ context.Context, _ Ref, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, err)
}

func (o *recordingObserver) CommunicationOpened(_ context.Context, _ Ref, _ appointments.Record, mode appointments.CommunicationMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, mode)
}

func (o *recordingObserver) CommunicationClosed(_ context.Context, _ Ref, mode appointments.CommunicationMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = append(o.closed, mode)
}

func (o *recordingObserver) CommunicationDenied(_ context.Context, _ Ref, denied *appointments.AccessDeniedError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.denied = append(o.denied, denied)
}

func (o *recordingObserver) AccessPolled(_ Ref, update AccessUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polls = append(o.polls, update)
}

func (o *recordingObserver) SessionClosed(_ context.Context, ref Ref) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended = append(o.ended, ref.ID)
}

func (o *recordingObserver) pollCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.polls)
}

// today is 2024-01-10 at noon UTC.
var today = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func tomorrowAt(hour, minute int) time.Time {
	return time.Date(2024, 1, 11, hour, minute, 0, 0, time.UTC)
}

func validPatient() appointments.Patient {
	return appointments.Patient{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Age:      "34",
		Gender:   appointments.GenderFemale,
		Symptoms: "Recurring headaches",
	}
}

func doctorSubject() Subject {
	return Subject{
		Kind:           appointments.KindAppointment,
		DoctorID:       2,
		DoctorName:     "Dr. Rajesh",
		Specialization: "Neurologist",
	}
}

func testConfig(clock *fakeClock, be Backend, obs Observer) Config {
	return Config{
		Backend:       be,
		SubmitTimeout: time.Second,
		PollInterval:  time.Hour,
		Location:      time.UTC,
		Clock:         clock.Now,
		Observer:      obs,
	}
}
