package appointments

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentType is the consultation mode a patient books.
type AppointmentType string

const (
	TypeChat     AppointmentType = "chat"
	TypeVideo    AppointmentType = "video"
	TypePhysical AppointmentType = "physical"
)

// ParseAppointmentType accepts only the three known consultation modes.
func ParseAppointmentType(value string) (AppointmentType, error) {
	t := AppointmentType(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAppointmentType, value)
	}
	return t, nil
}

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeChat, TypeVideo, TypePhysical:
		return true
	default:
		return false
	}
}

// CommunicationMode is the remote channel unlocked by a confirmed booking.
type CommunicationMode string

const (
	ModeNone  CommunicationMode = "none"
	ModeChat  CommunicationMode = "chat"
	ModeVideo CommunicationMode = "video"
)

// Mode reports which communication screen the type unlocks. Physical visits
// have none.
func (t AppointmentType) Mode() CommunicationMode {
	switch t {
	case TypeChat:
		return ModeChat
	case TypeVideo:
		return ModeVideo
	default:
		return ModeNone
	}
}

// Gender of a patient or provider.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func ParseGender(value string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(value)))
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGender, value)
	}
}

// Kind distinguishes doctor appointments from hospital treatment bookings.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindTreatment   Kind = "treatment"
)

// Patient holds the free-form details entered on the booking form.
type Patient struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      string `json:"age"`
	Gender   Gender `json:"gender"`
	Symptoms string `json:"symptoms"`
}

// MissingFields lists required patient fields that are blank. Symptoms are
// optional.
func (p Patient) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("name", p.Name)
	check("email", p.Email)
	check("phone", p.Phone)
	check("age", p.Age)
	check("gender", string(p.Gender))
	return missing
}

// Record is one confirmed booking. It is built once on backend
// acknowledgement and never mutated afterwards.
type Record struct {
	Kind            Kind            `json:"kind"`
	DoctorID        int             `json:"doctorId"`
	DoctorName      string          `json:"doctorName"`
	Specialization  string          `json:"specialization,omitempty"`
	TreatmentID     int             `json:"treatmentId,omitempty"`
	TreatmentName   string          `json:"treatmentName,omitempty"`
	Hospital        string          `json:"hospital,omitempty"`
	AppointmentType AppointmentType `json:"appointmentType"`
	Date            time.Time       `json:"date"`
	TimeSlot        TimeSlot        `json:"timeSlot"`
	Patient
	Price       int       `json:"price"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

// ScheduledAt combines the booked calendar date with the slot in loc.
func (r Record) ScheduledAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return r.TimeSlot.On(r.Date.In(loc))
}

// Subject names what was booked: the treatment for hospital bookings,
// otherwise the doctor.
func (r Record) Subject() string {
	if r.Kind == KindTreatment && r.TreatmentName != "" {
		return r.TreatmentName
	}
	return r.DoctorName
}
