package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/http/middleware"
	"github.com/wolfman30/healthconnect/internal/session"
)

func storedAppointment(appointmentType, slot string) backend.Appointment {
	return backend.Appointment{
		DoctorID:        2,
		DoctorName:      "Dr. Rajesh",
		Specialization:  "Neurologist",
		AppointmentType: appointmentType,
		Date:            "2024-01-15T00:00:00.000Z",
		TimeSlot:        slot,
		Name:            "Asha",
		Email:           "asha@example.com",
		Price:           appointments.PriceForLabel(appointmentType),
	}
}

func newAppointmentsRouter(fb *fakeBackend, sc *session.Context, now time.Time) chi.Router {
	h := NewAppointmentsHandler(fb, time.UTC, nil)
	h.now = func() time.Time { return now }
	r := chi.NewRouter()
	r.Use(withSession(sc))
	r.With(middleware.RequireLogin).Get("/appointments", h.ListMine)
	r.Get("/doctors/{doctorID}/access", h.DoctorAccess)
	return r
}

func TestAppointments_ListMineRequiresLogin(t *testing.T) {
	fb := &fakeBackend{}
	r := newAppointmentsRouter(fb, &session.Context{ID: "anon"}, today)

	rec := doRequest(t, r, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.LoginRequiredMessage, decodeBody[map[string]string](t, rec)["error"])
	assert.Empty(t, fb.listedEmails)
}

func TestAppointments_ListMineEvaluatesAccess(t *testing.T) {
	fb := &fakeBackend{userAppts: []backend.Appointment{
		storedAppointment("video", "04:00 PM"),
		storedAppointment("physical", "04:00 PM"),
		storedAppointment("chat", "bogus"),
	}}
	sc := &session.Context{ID: "sess-1"}
	sc.Login(session.Profile{Name: "Asha", Email: "asha@example.com"})
	r := newAppointmentsRouter(fb, sc, time.Date(2024, 1, 15, 15, 55, 0, 0, time.UTC))

	rec := doRequest(t, r, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"asha@example.com"}, fb.listedEmails)

	body := decodeBody[map[string][]appointmentView](t, rec)
	require.Len(t, body["appointments"], 3)
	video, physical, broken := body["appointments"][0], body["appointments"][1], body["appointments"][2]

	assert.True(t, video.Access.Open)
	assert.Equal(t, appointments.AccessOpen, video.Access.Status)
	assert.Equal(t, appointments.ModeNone, physical.Access.Mode)
	assert.False(t, physical.Access.Open, "physical visits never unlock communication")
	assert.Equal(t, appointments.AccessClosed, broken.Access.Status)
	assert.Nil(t, broken.Access.Window)
}

func TestAppointments_ListMineBackendFailure(t *testing.T) {
	sc := &session.Context{ID: "sess-1"}
	sc.Login(session.Profile{Email: "asha@example.com"})
	r := newAppointmentsRouter(&fakeBackend{listErr: errUnreachable}, sc, today)
	assert.Equal(t, http.StatusBadGateway, doRequest(t, r, http.MethodGet, "/appointments", nil).Code)
}

func TestAppointments_DoctorAccessBoundaries(t *testing.T) {
	latest := storedAppointment("chat", "04:00 PM")
	cases := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"five minutes before", time.Date(2024, 1, 15, 15, 55, 0, 0, time.UTC), true},
		{"thirty minutes after", time.Date(2024, 1, 15, 16, 30, 0, 0, time.UTC), true},
		{"just before", time.Date(2024, 1, 15, 15, 54, 59, 0, time.UTC), false},
		{"just after", time.Date(2024, 1, 15, 16, 30, 1, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAppointmentsRouter(&fakeBackend{latest: &latest}, &session.Context{ID: "anon"}, tc.now)
			rec := doRequest(t, r, http.MethodGet, "/doctors/2/access", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody[struct {
				DoctorID int        `json:"doctorId"`
				Access   accessView `json:"access"`
			}](t, rec)
			assert.Equal(t, 2, body.DoctorID)
			assert.Equal(t, tc.open, body.Access.Open)
		})
	}
}

func TestAppointments_DoctorAccessWithoutAppointment(t *testing.T) {
	r := newAppointmentsRouter(&fakeBackend{}, &session.Context{ID: "anon"}, today)
	rec := doRequest(t, r, http.MethodGet, "/doctors/2/access", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Nil(t, body["appointment"])

	r = newAppointmentsRouter(&fakeBackend{latestErr: errUnreachable}, &session.Context{ID: "anon"}, today)
	assert.Equal(t, http.StatusBadGateway, doRequest(t, r, http.MethodGet, "/doctors/2/access", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, r, http.MethodGet, "/doctors/zero/access", nil).Code)
}
