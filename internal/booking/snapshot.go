package booking

import (
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

// View is a point-in-time copy of a session.
type View struct {
	ID              string               `json:"id"`
	State           State                `json:"state"`
	Subject         Subject              `json:"subject"`
	Draft           Draft                `json:"draft"`
	Price           int                  `json:"price"`
	SelectableDates []string             `json:"selectableDates,omitempty"`
	TimeSlots       []string             `json:"timeSlots,omitempty"`
	Record          *appointments.Record `json:"record,omitempty"`
	Access          *AccessView          `json:"access,omitempty"`
	LastError       string               `json:"lastError,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// AccessView describes the communication window of a confirmed booking.
type AccessView struct {
	Mode       appointments.CommunicationMode `json:"mode"`
	Status     appointments.AccessStatus      `json:"status"`
	Open       bool                           `json:"open"`
	Window     *appointments.Window           `json:"window,omitempty"`
	LastPolled *time.Time                     `json:"lastPolled,omitempty"`
}

// Snapshot renders the session as seen at now. Selectable dates are
// recomputed on every call so the range slides with the clock.
func (s *Session) Snapshot(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.id,
		State:     s.state,
		Subject:   s.subject,
		Draft:     s.draft.clone(),
		Price:     s.draft.price(s.subject),
		LastError: s.lastError,
		CreatedAt: s.createdAt,
	}

	if s.state == StateEditing {
		for _, day := range appointments.DateRuleFor(s.subject.Kind).SelectableDays(now.In(s.cfg.Location)) {
			v.SelectableDates = append(v.SelectableDates, day.Format("2006-01-02"))
		}
		v.TimeSlots = appointments.SlotsFor(s.subject.Kind).Labels()
	}

	if s.record != nil {
		rec := *s.record
		v.Record = &rec
		v.Price = rec.Price
		if mode := rec.AppointmentType.Mode(); mode != appointments.ModeNone {
			access := &AccessView{Mode: mode, Status: appointments.AccessClosed}
			if window, ok := appointments.AccessWindow(rec.Date.In(s.cfg.Location), rec.TimeSlot.Label()); ok {
				access.Window = &window
				access.Status = window.Status(now)
			}
			access.Open = access.Status == appointments.AccessOpen
			if s.watcher != nil {
				if last, ok := s.watcher.Last(); ok {
					polled := last.CheckedAt
					access.LastPolled = &polled
				}
			}
			v.Access = access
		}
	}
	return v
}
