package booking

import (
	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/catalog"
)

// Subject is what a session books: a doctor appointment or a hospital
// treatment. Display fields are denormalized at session creation.
type Subject struct {
	Kind           appointments.Kind `json:"kind"`
	DoctorID       int               `json:"doctorId,omitempty"`
	DoctorName     string            `json:"doctorName"`
	Specialization string            `json:"specialization,omitempty"`
	TreatmentID    int               `json:"treatmentId,omitempty"`
	TreatmentName  string            `json:"treatmentName,omitempty"`
	Hospital       string            `json:"hospital,omitempty"`
	TreatmentPrice int               `json:"treatmentPrice,omitempty"`
}

func DoctorSubject(d catalog.Doctor) Subject {
	return Subject{
		Kind:           appointments.KindAppointment,
		DoctorID:       d.ID,
		DoctorName:     d.Name,
		Specialization: d.Specialization,
	}
}

func TreatmentSubject(t catalog.Treatment) Subject {
	return Subject{
		Kind:           appointments.KindTreatment,
		DoctorName:     t.DoctorName,
		TreatmentID:    t.ID,
		TreatmentName:  t.Name,
		Hospital:       t.Hospital,
		TreatmentPrice: t.CostRupees,
	}
}

// Name is the display name of the subject.
func (s Subject) Name() string {
	if s.Kind == appointments.KindTreatment && s.TreatmentName != "" {
		return s.TreatmentName
	}
	return s.DoctorName
}
