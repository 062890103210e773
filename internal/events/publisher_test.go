package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func sampleRecord(t *testing.T) (appointments.Record, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return appointments.Record{
		Kind:            appointments.KindAppointment,
		DoctorID:        3,
		DoctorName:      "Dr. Emily Rodriguez",
		AppointmentType: appointments.TypeVideo,
		Date:            time.Date(2024, 1, 15, 0, 0, 0, 0, loc),
		TimeSlot:        appointments.MustTimeSlot("04:00 PM"),
		Patient:         appointments.Patient{Name: "Asha", Email: "asha@example.com", Symptoms: "headache"},
		Price:           500,
		ConfirmedAt:     time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}, loc
}

func TestNewAppointmentBooked(t *testing.T) {
	rec, loc := sampleRecord(t)
	evt := NewAppointmentBooked("bk-1", rec, loc)

	assert.Equal(t, "bk-1", evt.BookingID)
	assert.Equal(t, "2024-01-15", evt.Date)
	assert.Equal(t, "04:00 PM", evt.TimeSlot)
	assert.Equal(t, "video", evt.AppointmentType)
	assert.Equal(t, 500, evt.Price)
	assert.Equal(t, EventTypeAppointmentBooked, evt.EventType())

	data, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "headache")
}

func TestNewEnvelope(t *testing.T) {
	rec, loc := sampleRecord(t)
	id := uuid.New()
	ts := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	env, err := NewEnvelope(" bk-1 ", "corr", NewAppointmentBooked("bk-1", rec, loc), WithEventID(id), WithTimestamp(ts))
	require.NoError(t, err)
	assert.Equal(t, id, env.EventID)
	assert.Equal(t, "bk-1", env.Aggregate)
	assert.Equal(t, ts.UnixMicro(), env.TimestampMicros)
	assert.Equal(t, EventTypeAppointmentBooked, env.EventType)

	var payload AppointmentBookedV1
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "asha@example.com", payload.PatientEmail)
}

func TestNewEnvelope_Errors(t *testing.T) {
	_, err := NewEnvelope("", "", AppointmentBookedV1{})
	assert.ErrorIs(t, err, errMissingAggregate)

	_, err = NewEnvelope("bk", "", nil)
	assert.ErrorIs(t, err, errNilEvent)
}

func TestSQSPublisher_Publish(t *testing.T) {
	rec, loc := sampleRecord(t)
	fake := &fakeSQS{}
	pub := NewSQSPublisher(fake, "http://localhost:4566/000000000000/bookings", nil)

	require.NoError(t, pub.Publish(context.Background(), "bk-1", NewAppointmentBooked("bk-1", rec, loc)))
	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "http://localhost:4566/000000000000/bookings", aws.ToString(in.QueueUrl))
	assert.Equal(t, EventTypeAppointmentBooked, aws.ToString(in.MessageAttributes["event_type"].StringValue))

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &env))
	assert.Equal(t, "bk-1", env.Aggregate)
}

func TestSQSPublisher_PublishError(t *testing.T) {
	rec, loc := sampleRecord(t)
	pub := NewSQSPublisher(&fakeSQS{err: errors.New("unavailable")}, "q", nil)
	err := pub.Publish(context.Background(), "bk-1", NewAppointmentBooked("bk-1", rec, loc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestNewSQSPublisher_Panics(t *testing.T) {
	assert.Panics(t, func() { NewSQSPublisher(nil, "q", nil) })
	assert.Panics(t, func() { NewSQSPublisher(&fakeSQS{}, " ", nil) })
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), "bk", AppointmentBookedV1{}))
}
