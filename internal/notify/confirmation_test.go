package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

type recordingSender struct {
	msgs []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func appointmentRecord(loc *time.Location, apptType appointments.AppointmentType) appointments.Record {
	return appointments.Record{
		Kind:            appointments.KindAppointment,
		DoctorID:        1,
		DoctorName:      "Dr. Sarah Johnson",
		Specialization:  "Cardiology",
		AppointmentType: apptType,
		Date:            time.Date(2024, 1, 15, 0, 0, 0, 0, loc),
		TimeSlot:        appointments.MustTimeSlot("04:00 PM"),
		Patient: appointments.Patient{
			Name:   "Asha",
			Email:  "asha@example.com",
			Phone:  "9999999999",
			Age:    "34",
			Gender: appointments.GenderFemale,
		},
		Price: appointments.PriceFor(apptType),
	}
}

func TestComposeConfirmation_Appointment(t *testing.T) {
	loc := kolkata(t)
	msg := ComposeConfirmation(appointmentRecord(loc, appointments.TypePhysical), loc)

	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Appointment Successfully Booked", msg.Subject)
	assert.Contains(t, msg.Body, "Your appointment with Dr. Sarah Johnson is confirmed for January 15, 2024 at 04:00 PM.")
	assert.Contains(t, msg.Body, "Fee: Rs. 700")
	assert.Contains(t, msg.Body, appointmentArrivalNote)
	assert.Contains(t, msg.HTML, "<strong>")
}

func TestComposeConfirmation_VideoNote(t *testing.T) {
	loc := kolkata(t)
	msg := ComposeConfirmation(appointmentRecord(loc, appointments.TypeVideo), loc)
	assert.Contains(t, msg.Body, videoLinkNote)
	assert.NotContains(t, msg.Body, appointmentArrivalNote)
}

func TestComposeConfirmation_Treatment(t *testing.T) {
	loc := kolkata(t)
	rec := appointments.Record{
		Kind:            appointments.KindTreatment,
		TreatmentID:     2,
		TreatmentName:   "Angioplasty",
		Hospital:        "City Heart Hospital",
		DoctorName:      "Dr. Rao",
		AppointmentType: appointments.TypePhysical,
		Date:            time.Date(2024, 2, 3, 0, 0, 0, 0, loc),
		TimeSlot:        appointments.MustTimeSlot("09:00 AM"),
		Patient:         appointments.Patient{Name: "Ravi", Email: "ravi@example.com"},
		Price:           14999,
	}
	msg := ComposeConfirmation(rec, loc)

	assert.Equal(t, "Treatment Successfully Booked", msg.Subject)
	assert.Contains(t, msg.Body, "Your Angioplasty procedure is confirmed for February 3, 2024 at 09:00 AM.")
	assert.Contains(t, msg.Body, "Hospital: City Heart Hospital")
	assert.Contains(t, msg.Body, treatmentArrivalNote)
}

func TestComposeConfirmation_EscapesHTML(t *testing.T) {
	loc := kolkata(t)
	rec := appointmentRecord(loc, appointments.TypeChat)
	rec.Name = "<script>"
	msg := ComposeConfirmation(rec, loc)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestNotifyConfirmed(t *testing.T) {
	loc := kolkata(t)
	sender := &recordingSender{}
	notifier := NewConfirmationNotifier(sender, loc, nil)

	require.NoError(t, notifier.NotifyConfirmed(context.Background(), appointmentRecord(loc, appointments.TypeChat)))
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "Asha", sender.msgs[0].ToName)
}

func TestNotifyConfirmed_SkipsWithoutEmail(t *testing.T) {
	loc := kolkata(t)
	sender := &recordingSender{}
	notifier := NewConfirmationNotifier(sender, loc, nil)

	rec := appointmentRecord(loc, appointments.TypeChat)
	rec.Email = " "
	require.NoError(t, notifier.NotifyConfirmed(context.Background(), rec))
	assert.Empty(t, sender.msgs)
}

func TestNotifyConfirmed_PropagatesSendError(t *testing.T) {
	loc := kolkata(t)
	notifier := NewConfirmationNotifier(&recordingSender{err: errors.New("boom")}, loc, nil)
	err := notifier.NotifyConfirmed(context.Background(), appointmentRecord(loc, appointments.TypeChat))
	require.Error(t, err)
}

func TestNotifyConfirmed_NilSafe(t *testing.T) {
	var notifier *ConfirmationNotifier
	assert.NoError(t, notifier.NotifyConfirmed(context.Background(), appointments.Record{}))
}
