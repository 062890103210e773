package events

import (
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

const EventTypeAppointmentBooked = "appointment.booked.v1"

// AppointmentBookedV1 is emitted once per confirmed booking. It carries the
// patient email but never symptoms.
type AppointmentBookedV1 struct {
	BookingID       string    `json:"booking_id"`
	Kind            string    `json:"kind"`
	DoctorID        int       `json:"doctor_id,omitempty"`
	DoctorName      string    `json:"doctor_name"`
	TreatmentID     int       `json:"treatment_id,omitempty"`
	TreatmentName   string    `json:"treatment_name,omitempty"`
	Hospital        string    `json:"hospital,omitempty"`
	AppointmentType string    `json:"appointment_type"`
	Date            string    `json:"date"`
	TimeSlot        string    `json:"time_slot"`
	Price           int       `json:"price"`
	PatientEmail    string    `json:"patient_email"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (AppointmentBookedV1) EventType() string { return EventTypeAppointmentBooked }

// NewAppointmentBooked builds the event for rec. The calendar date is
// rendered in loc.
func NewAppointmentBooked(bookingID string, rec appointments.Record, loc *time.Location) AppointmentBookedV1 {
	if loc == nil {
		loc = time.UTC
	}
	occurred := rec.ConfirmedAt
	if occurred.IsZero() {
		occurred = nowFunc()
	}
	return AppointmentBookedV1{
		BookingID:       bookingID,
		Kind:            string(rec.Kind),
		DoctorID:        rec.DoctorID,
		DoctorName:      rec.DoctorName,
		TreatmentID:     rec.TreatmentID,
		TreatmentName:   rec.TreatmentName,
		Hospital:        rec.Hospital,
		AppointmentType: string(rec.AppointmentType),
		Date:            rec.Date.In(loc).Format("2006-01-02"),
		TimeSlot:        rec.TimeSlot.Label(),
		Price:           rec.Price,
		PatientEmail:    rec.Email,
		OccurredAt:      occurred.UTC(),
	}
}
