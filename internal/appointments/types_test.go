package appointments

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppointmentType(t *testing.T) {
	typ, err := ParseAppointmentType(" Video ")
	require.NoError(t, err)
	assert.Equal(t, TypeVideo, typ)

	_, err = ParseAppointmentType("home")
	assert.True(t, errors.Is(err, ErrUnknownAppointmentType))
}

func TestAppointmentTypeMode(t *testing.T) {
	assert.Equal(t, ModeChat, TypeChat.Mode())
	assert.Equal(t, ModeVideo, TypeVideo.Mode())
	assert.Equal(t, ModeNone, TypePhysical.Mode())
	assert.Equal(t, ModeNone, AppointmentType("").Mode())
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("FEMALE")
	require.NoError(t, err)
	assert.Equal(t, GenderFemale, g)

	_, err = ParseGender("unknown")
	assert.True(t, errors.Is(err, ErrUnknownGender))
}

func TestPatientMissingFields(t *testing.T) {
	assert.Equal(t, []string{"name", "email", "phone", "age", "gender"}, Patient{}.MissingFields())
	assert.Empty(t, Patient{Name: "Asha", Email: "asha@example.com", Phone: "98765", Age: "31", Gender: GenderFemale}.MissingFields())
	assert.Equal(t, []string{"phone"}, Patient{Name: "Asha", Email: "a@b.c", Phone: "  ", Age: "31", Gender: GenderFemale}.MissingFields())
}

func TestRecordScheduledAt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// Midnight IST serialized as UTC lands on the previous UTC day.
	date := time.Date(2024, 1, 14, 18, 30, 0, 0, time.UTC)
	rec := Record{Date: date, TimeSlot: MustTimeSlot("10:00 AM")}
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, ist), rec.ScheduledAt(ist))
}

func TestRecordJSONShape(t *testing.T) {
	rec := Record{
		Kind:            KindAppointment,
		DoctorID:        2,
		DoctorName:      "Dr. Rajesh",
		Specialization:  "Neurologist",
		AppointmentType: TypeVideo,
		Date:            time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TimeSlot:        MustTimeSlot("10:00 AM"),
		Patient:         Patient{Name: "Asha", Email: "asha@example.com", Phone: "1", Age: "30", Gender: GenderFemale},
		Price:           PriceVideo,
	}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.Equal(t, "10:00 AM", fields["timeSlot"])
	assert.Equal(t, "asha@example.com", fields["email"])
	assert.Equal(t, float64(500), fields["price"])
	assert.NotContains(t, fields, "treatmentId")
	assert.Equal(t, "Dr. Rajesh", rec.Subject())
}

func TestValidationErrorMessage(t *testing.T) {
	err := MissingInformation("date")
	assert.Equal(t, MissingInformationMessage, err.Message)
	assert.Contains(t, err.Error(), "missing date")

	var target *ValidationError
	assert.True(t, errors.As(error(err), &target))
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Op: "create appointment", Err: cause}
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, BookingFailedMessage, err.UserMessage())
	assert.Equal(t, "create appointment failed: connection refused", err.Error())

	withStatus := &TransportError{Op: "create appointment", Status: 500, Err: cause}
	assert.Contains(t, withStatus.Error(), "status 500")
}

func TestMissingInformationForKind(t *testing.T) {
	assert.Equal(t, MissingInformationMessage, MissingInformationFor(KindAppointment, "date").Message)
	assert.Equal(t, MissingTreatmentInformationMessage, MissingInformationFor(KindTreatment, "timeSlot").Message)
}
