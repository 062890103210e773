package booking

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/communication"
	"github.com/wolfman30/healthconnect/internal/compliance"
	"github.com/wolfman30/healthconnect/internal/events"
	"github.com/wolfman30/healthconnect/internal/notify"
	"github.com/wolfman30/healthconnect/internal/observability/metrics"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// NotifyObserver emails the patient on confirmation.
type NotifyObserver struct {
	NopObserver
	notifier *notify.ConfirmationNotifier
}

func NewNotifyObserver(n *notify.ConfirmationNotifier) *NotifyObserver {
	return &NotifyObserver{notifier: n}
}

func (o *NotifyObserver) BookingConfirmed(ctx context.Context, _ Ref, rec appointments.Record, _ time.Duration) {
	// Send errors are logged by the notifier.
	_ = o.notifier.NotifyConfirmed(ctx, rec)
}

// EventsObserver publishes appointment.booked.v1 on confirmation.
type EventsObserver struct {
	NopObserver
	publisher events.Publisher
	loc       *time.Location
	logger    *logging.Logger
}

func NewEventsObserver(p events.Publisher, loc *time.Location, logger *logging.Logger) *EventsObserver {
	if p == nil {
		p = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EventsObserver{publisher: p, loc: loc, logger: logger}
}

func (o *EventsObserver) BookingConfirmed(ctx context.Context, ref Ref, rec appointments.Record, _ time.Duration) {
	evt := events.NewAppointmentBooked(ref.ID, rec, o.loc)
	if err := o.publisher.Publish(ctx, ref.ID, evt); err != nil {
		o.logger.Error("booking: failed to publish booked event", "error", err, "booking_id", ref.ID)
	}
}

// AuditObserver writes the compliance trail.
type AuditObserver struct {
	NopObserver
	audit  *compliance.AuditService
	loc    *time.Location
	logger *logging.Logger
}

func NewAuditObserver(a *compliance.AuditService, loc *time.Location, logger *logging.Logger) *AuditObserver {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditObserver{audit: a, loc: loc, logger: logger}
}

func (o *AuditObserver) BookingConfirmed(ctx context.Context, ref Ref, rec appointments.Record, _ time.Duration) {
	o.check(o.audit.LogBookingConfirmed(ctx, ref.Owner, ref.ID, rec, o.loc), "booking.confirmed")
}

// BookingFailed records backend failures only. Validation rejections never
// reached the backend.
func (o *AuditObserver) BookingFailed(ctx context.Context, ref Ref, err error, _ time.Duration) {
	var terr *appointments.TransportError
	if !errors.As(err, &terr) {
		return
	}
	o.check(o.audit.LogBookingFailed(ctx, ref.Owner, ref.ID, ref.Subject, ref.Kind, terr.Error(), terr.Status), "booking.failed")
}

func (o *AuditObserver) CommunicationOpened(ctx context.Context, ref Ref, _ appointments.Record, mode appointments.CommunicationMode) {
	o.check(o.audit.LogCommunicationOpened(ctx, ref.Owner, ref.ID, ref.Subject, mode), "communication.opened")
}

func (o *AuditObserver) CommunicationDenied(ctx context.Context, ref Ref, denied *appointments.AccessDeniedError) {
	o.check(o.audit.LogCommunicationDenied(ctx, ref.Owner, ref.ID, ref.Subject, denied), "communication.denied")
}

func (o *AuditObserver) check(err error, event string) {
	if err != nil {
		o.logger.Error("booking: audit write failed", "error", err, "event", event)
	}
}

// MetricsObserver feeds the Prometheus booking metrics.
type MetricsObserver struct {
	NopObserver
	metrics *metrics.BookingMetrics
}

func NewMetricsObserver(m *metrics.BookingMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) BookingConfirmed(_ context.Context, ref Ref, _ appointments.Record, elapsed time.Duration) {
	o.metrics.ObserveSubmission(string(ref.Kind), "confirmed", elapsed.Seconds())
}

func (o *MetricsObserver) BookingFailed(_ context.Context, ref Ref, err error, elapsed time.Duration) {
	outcome := "failed"
	var verr *appointments.ValidationError
	if errors.As(err, &verr) {
		outcome = "invalid"
	}
	o.metrics.ObserveSubmission(string(ref.Kind), outcome, elapsed.Seconds())
}

func (o *MetricsObserver) CommunicationOpened(_ context.Context, _ Ref, _ appointments.Record, mode appointments.CommunicationMode) {
	o.metrics.ObserveAccessCheck(string(mode), string(appointments.AccessOpen))
}

func (o *MetricsObserver) CommunicationDenied(_ context.Context, _ Ref, denied *appointments.AccessDeniedError) {
	o.metrics.ObserveAccessCheck(string(denied.Mode), "denied")
}

func (o *MetricsObserver) AccessPolled(_ Ref, update AccessUpdate) {
	o.metrics.ObserveAccessCheck(string(update.Mode), string(update.Status))
}

// RoomsObserver opens and tears down chat rooms and video lobbies.
type RoomsObserver struct {
	NopObserver
	rooms *communication.Rooms
}

func NewRoomsObserver(r *communication.Rooms) *RoomsObserver {
	return &RoomsObserver{rooms: r}
}

func (o *RoomsObserver) CommunicationOpened(ctx context.Context, ref Ref, rec appointments.Record, mode appointments.CommunicationMode) {
	switch mode {
	case appointments.ModeChat:
		o.rooms.OpenChat(ctx, ref.ID, rec)
	case appointments.ModeVideo:
		o.rooms.OpenVideo(ref.ID, rec)
	}
}

func (o *RoomsObserver) CommunicationClosed(_ context.Context, ref Ref, _ appointments.CommunicationMode) {
	o.rooms.Close(ref.ID)
}

func (o *RoomsObserver) SessionClosed(_ context.Context, ref Ref) {
	o.rooms.Close(ref.ID)
}

var (
	_ Observer = (*NotifyObserver)(nil)
	_ Observer = (*EventsObserver)(nil)
	_ Observer = (*AuditObserver)(nil)
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*RoomsObserver)(nil)
)
