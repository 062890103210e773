package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

// Draft is the editable booking form.
type Draft struct {
	AppointmentType appointments.AppointmentType `json:"appointmentType"`
	Date            *time.Time                   `json:"date,omitempty"`
	TimeSlot        *appointments.TimeSlot       `json:"timeSlot,omitempty"`
	Patient         appointments.Patient         `json:"patient"`
}

func newDraft(kind appointments.Kind) Draft {
	d := Draft{AppointmentType: appointments.TypeChat}
	if kind == appointments.KindTreatment {
		d.AppointmentType = appointments.TypePhysical
	}
	return d
}

// Update carries optional form changes. Nil fields are left untouched;
// ClearDate and ClearTimeSlot unset the selection.
type Update struct {
	AppointmentType *string
	Date            *time.Time
	ClearDate       bool
	TimeSlot        *string
	ClearTimeSlot   bool
	Patient         *appointments.Patient
}

// price is always recomputed from the form, never stored independently.
func (d Draft) price(subject Subject) int {
	if subject.Kind == appointments.KindTreatment {
		return subject.TreatmentPrice
	}
	return appointments.PriceFor(d.AppointmentType)
}

// apply validates u against the rules for kind at now and returns the
// updated draft. d is left unchanged on error.
func (d Draft) apply(u Update, kind appointments.Kind, now time.Time, loc *time.Location) (Draft, error) {
	next := d

	if u.AppointmentType != nil {
		t, err := appointments.ParseAppointmentType(*u.AppointmentType)
		if err != nil {
			return d, err
		}
		if kind == appointments.KindTreatment && t != appointments.TypePhysical {
			return d, ErrTypeNotSupported
		}
		next.AppointmentType = t
	}

	switch {
	case u.ClearDate:
		next.Date = nil
	case u.Date != nil:
		day := midnight(*u.Date, loc)
		if !appointments.DateRuleFor(kind).IsSelectable(day, now.In(loc)) {
			return d, fmt.Errorf("%w: %s", ErrDateUnavailable, day.Format("2006-01-02"))
		}
		next.Date = &day
	}

	switch {
	case u.ClearTimeSlot:
		next.TimeSlot = nil
	case u.TimeSlot != nil:
		slot, err := appointments.ParseTimeSlot(*u.TimeSlot)
		if err != nil {
			return d, err
		}
		if !appointments.SlotsFor(kind).Contains(slot) {
			return d, fmt.Errorf("%w: %s", ErrSlotUnavailable, slot.Label())
		}
		next.TimeSlot = &slot
	}

	if u.Patient != nil {
		p := *u.Patient
		if strings.TrimSpace(string(p.Gender)) != "" {
			g, err := appointments.ParseGender(string(p.Gender))
			if err != nil {
				return d, err
			}
			p.Gender = g
		}
		next.Patient = p
	}

	return next, nil
}

// missingSchedule lists the unset schedule fields.
func (d Draft) missingSchedule() []string {
	var missing []string
	if d.Date == nil {
		missing = append(missing, "date")
	}
	if d.TimeSlot == nil {
		missing = append(missing, "timeSlot")
	}
	return missing
}

// dateStale reports whether the chosen day has slid out of the selectable
// range since it was picked.
func (d Draft) dateStale(kind appointments.Kind, now time.Time, loc *time.Location) bool {
	if d.Date == nil {
		return false
	}
	return !appointments.DateRuleFor(kind).IsSelectable(*d.Date, now.In(loc))
}

func (d Draft) clone() Draft {
	out := d
	if d.Date != nil {
		day := *d.Date
		out.Date = &day
	}
	if d.TimeSlot != nil {
		slot := *d.TimeSlot
		out.TimeSlot = &slot
	}
	return out
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
