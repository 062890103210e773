package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/booking"
	"github.com/wolfman30/healthconnect/internal/catalog"
	"github.com/wolfman30/healthconnect/internal/communication"
	"github.com/wolfman30/healthconnect/internal/session"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

var today = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// fakeBackend stands in for the Backend Appointment Service.
type fakeBackend struct {
	mu           sync.Mutex
	createErr    error
	created      []backend.Appointment
	treatments   []backend.TreatmentBooking
	signupErr    error
	signups      []backend.SignupRequest
	loginErr     error
	profile      *backend.Profile
	contactErr   error
	contacts     []backend.ContactRequest
	userAppts    []backend.Appointment
	listErr      error
	latest       *backend.Appointment
	latestErr    error
	listedEmails []string
}

func (f *fakeBackend) CreateAppointment(_ context.Context, appt backend.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, appt)
	return nil
}

func (f *fakeBackend) CreateTreatmentBooking(_ context.Context, b backend.TreatmentBooking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.treatments = append(f.treatments, b)
	return nil
}

func (f *fakeBackend) Signup(_ context.Context, req backend.SignupRequest) (string, error) {
	f.signups = append(f.signups, req)
	if f.signupErr != nil {
		return "", f.signupErr
	}
	return "User created successfully", nil
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*backend.Profile, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return &backend.Profile{Name: "Asha", Email: email, Phone: "9876543210", Location: "Hyderabad"}, nil
}

func (f *fakeBackend) SubmitContact(_ context.Context, req backend.ContactRequest) error {
	f.contacts = append(f.contacts, req)
	return f.contactErr
}

func (f *fakeBackend) ListUserAppointments(_ context.Context, email string) ([]backend.Appointment, error) {
	f.listedEmails = append(f.listedEmails, email)
	return f.userAppts, f.listErr
}

func (f *fakeBackend) LatestDoctorAppointment(context.Context, int) (*backend.Appointment, error) {
	return f.latest, f.latestErr
}

var errUnreachable = errors.New("dial tcp: connection refused")

// withSession attaches sc to every request.
func withSession(sc *session.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
		})
	}
}

type bookingFixture struct {
	clock   *testClock
	backend *fakeBackend
	manager *booking.Manager
	rooms   *communication.Rooms
	handler *BookingsHandler
	router  chi.Router
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	clock := &testClock{now: today}
	fb := &fakeBackend{}
	logger := logging.NewWithWriter("error", &bytes.Buffer{})
	rooms := communication.NewRooms(communication.RoomsConfig{
		ReplyDelay: 10 * time.Millisecond,
		Location:   time.UTC,
		Logger:     logger,
	})
	manager := booking.NewManager(booking.Config{
		Backend:      fb,
		PollInterval: time.Hour,
		Location:     time.UTC,
		Clock:        clock.Now,
		Observer:     booking.NewRoomsObserver(rooms),
		Logger:       logger,
	}, nil)
	t.Cleanup(func() {
		manager.Shutdown(context.Background())
		rooms.CloseAll()
	})

	h := NewBookingsHandler(BookingsConfig{
		Manager:  manager,
		Catalog:  catalog.Default(),
		Rooms:    rooms,
		Location: time.UTC,
		Clock:    clock.Now,
		Logger:   logger,
	})

	r := chi.NewRouter()
	r.Use(withSession(&session.Context{ID: "owner-1"}))
	r.Get("/bookings", h.List)
	r.Post("/bookings", h.Create)
	r.Route("/bookings/{bookingID}", func(b chi.Router) {
		b.Get("/", h.Get)
		b.Patch("/", h.Update)
		b.Delete("/", h.Delete)
		b.Post("/submit", h.Submit)
		b.Post("/book-again", h.BookAgain)
		b.Post("/chat", h.OpenChat)
		b.Delete("/chat", h.CloseChat)
		b.Get("/chat/messages", h.Messages)
		b.Post("/chat/messages", h.SendMessage)
		b.Get("/chat/ws", h.ChatSocket)
		b.Post("/video", h.OpenVideo)
		b.Delete("/video", h.CloseVideo)
		b.Get("/access/ws", h.AccessSocket)
	})

	return &bookingFixture{clock: clock, backend: fb, manager: manager, rooms: rooms, handler: h, router: r}
}

func (f *bookingFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, f.router, method, path, body)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var validPatient = map[string]string{
	"name":     "Asha",
	"email":    "asha@example.com",
	"phone":    "9876543210",
	"age":      "29",
	"gender":   "female",
	"symptoms": "",
}

// confirmBooking creates a doctor booking of the given type for
// 2024-01-11 at slot and submits it.
func (f *bookingFixture) confirmBooking(t *testing.T, appointmentType, slot string) string {
	t.Helper()
	created := f.do(t, http.MethodPost, "/bookings", map[string]int{"doctorId": 2})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := decodeBody[booking.View](t, created).ID

	patched := f.do(t, http.MethodPatch, "/bookings/"+id, map[string]any{
		"appointmentType": appointmentType,
		"date":            "2024-01-11",
		"timeSlot":        slot,
		"patient":         validPatient,
	})
	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())

	submitted := f.do(t, http.MethodPost, "/bookings/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, submitted.Code, submitted.Body.String())
	return id
}
