package booking

import (
	"context"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

// Ref identifies the session an observer callback is about.
type Ref struct {
	ID      string
	Owner   string
	Kind    appointments.Kind
	Subject string
}

// Observer receives lifecycle callbacks. Callbacks run synchronously on the
// goroutine that caused the transition, after the session lock is released.
type Observer interface {
	BookingConfirmed(ctx context.Context, ref Ref, rec appointments.Record, elapsed time.Duration)
	BookingFailed(ctx context.Context, ref Ref, err error, elapsed time.Duration)
	CommunicationOpened(ctx context.Context, ref Ref, rec appointments.Record, mode appointments.CommunicationMode)
	CommunicationClosed(ctx context.Context, ref Ref, mode appointments.CommunicationMode)
	CommunicationDenied(ctx context.Context, ref Ref, denied *appointments.AccessDeniedError)
	AccessPolled(ref Ref, update AccessUpdate)
	SessionClosed(ctx context.Context, ref Ref)
}

// NopObserver ignores every callback. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) BookingConfirmed(context.Context, Ref, appointments.Record, time.Duration) {}

func (NopObserver) BookingFailed(context.Context, Ref, error, time.Duration) {}

func (NopObserver) CommunicationOpened(context.Context, Ref, appointments.Record, appointments.CommunicationMode) {
}

func (NopObserver) CommunicationClosed(context.Context, Ref, appointments.CommunicationMode) {}

func (NopObserver) CommunicationDenied(context.Context, Ref, *appointments.AccessDeniedError) {}

func (NopObserver) AccessPolled(Ref, AccessUpdate) {}

func (NopObserver) SessionClosed(context.Context, Ref) {}

// Observers fans each callback out in order.
type Observers []Observer

func (o Observers) BookingConfirmed(ctx context.Context, ref Ref, rec appointments.Record, elapsed time.Duration) {
	for _, obs := range o {
		obs.BookingConfirmed(ctx, ref, rec, elapsed)
	}
}

func (o Observers) BookingFailed(ctx context.Context, ref Ref, err error, elapsed time.Duration) {
	for _, obs := range o {
		obs.BookingFailed(ctx, ref, err, elapsed)
	}
}

func (o Observers) CommunicationOpened(ctx context.Context, ref Ref, rec appointments.Record, mode appointments.CommunicationMode) {
	for _, obs := range o {
		obs.CommunicationOpened(ctx, ref, rec, mode)
	}
}

func (o Observers) CommunicationClosed(ctx context.Context, ref Ref, mode appointments.CommunicationMode) {
	for _, obs := range o {
		obs.CommunicationClosed(ctx, ref, mode)
	}
}

func (o Observers) CommunicationDenied(ctx context.Context, ref Ref, denied *appointments.AccessDeniedError) {
	for _, obs := range o {
		obs.CommunicationDenied(ctx, ref, denied)
	}
}

func (o Observers) AccessPolled(ref Ref, update AccessUpdate) {
	for _, obs := range o {
		obs.AccessPolled(ref, update)
	}
}

func (o Observers) SessionClosed(ctx context.Context, ref Ref) {
	for _, obs := range o {
		obs.SessionClosed(ctx, ref)
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = Observers(nil)
)
