package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

// isoLayout matches JavaScript's Date.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Appointment is the appointment document exchanged with the backend.
type Appointment struct {
	DoctorID        int    `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	Specialization  string `json:"specialization"`
	AppointmentType string `json:"appointmentType"`
	Date            string `json:"date"`
	TimeSlot        string `json:"timeSlot"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Age             string `json:"age"`
	Gender          string `json:"gender"`
	Symptoms        string `json:"symptoms"`
	Price           int    `json:"price"`
}

// NewAppointment converts a record into its wire form.
func NewAppointment(rec appointments.Record) Appointment {
	return Appointment{
		DoctorID:        rec.DoctorID,
		DoctorName:      rec.DoctorName,
		Specialization:  rec.Specialization,
		AppointmentType: string(rec.AppointmentType),
		Date:            FormatDate(rec.Date),
		TimeSlot:        rec.TimeSlot.Label(),
		Name:            rec.Name,
		Email:           rec.Email,
		Phone:           rec.Phone,
		Age:             rec.Age,
		Gender:          string(rec.Gender),
		Symptoms:        rec.Symptoms,
		Price:           rec.Price,
	}
}

// ParsedDate decodes the ISO-8601 date string.
func (a Appointment) ParsedDate() (time.Time, error) {
	return ParseDate(a.Date)
}

// Patient returns the patient block for form pre-fill.
func (a Appointment) Patient() appointments.Patient {
	return appointments.Patient{
		Name:     a.Name,
		Email:    a.Email,
		Phone:    a.Phone,
		Age:      a.Age,
		Gender:   appointments.Gender(strings.ToLower(a.Gender)),
		Symptoms: a.Symptoms,
	}
}

// TreatmentBooking is the body sent to the configured treatment path.
type TreatmentBooking struct {
	TreatmentID   int    `json:"treatmentId"`
	TreatmentName string `json:"treatmentName"`
	Hospital      string `json:"hospital"`
	DoctorName    string `json:"doctorName"`
	Date          string `json:"date"`
	TimeSlot      string `json:"timeSlot"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	Notes         string `json:"notes"`
	Price         int    `json:"price"`
}

func NewTreatmentBooking(rec appointments.Record) TreatmentBooking {
	return TreatmentBooking{
		TreatmentID:   rec.TreatmentID,
		TreatmentName: rec.TreatmentName,
		Hospital:      rec.Hospital,
		DoctorName:    rec.DoctorName,
		Date:          FormatDate(rec.Date),
		TimeSlot:      rec.TimeSlot.Label(),
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		Age:           rec.Age,
		Gender:        string(rec.Gender),
		Notes:         rec.Symptoms,
		Price:         rec.Price,
	}
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Location string `json:"location"`
}

// Profile is the user object returned by POST /login.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// ContactRequest is the body of POST /contact.
type ContactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// FormatDate renders t in UTC with millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseDate accepts full ISO-8601 timestamps and bare calendar dates.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("backend: empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("backend: unparseable date %q", value)
}
