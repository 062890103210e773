package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 15 * time.Second
)

var tracer = otel.Tracer("healthconnect.internal.backend")

// Client talks to the Backend Appointment Service.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	treatmentPath string
	logger        *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTreatmentPath sends treatment bookings to path on the backend. The
// backend has no treatment endpoint, so by default treatment bookings are
// acknowledged without a request.
func WithTreatmentPath(path string) Option {
	return func(c *Client) {
		path = strings.TrimSpace(path)
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		c.treatmentPath = path
	}
}

// NewClient constructs a backend client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAppointment persists an appointment. Any 2xx is success.
func (c *Client) CreateAppointment(ctx context.Context, appt Appointment) error {
	if err := c.doJSON(ctx, "create_appointment", http.MethodPost, "/appointments", appt, nil); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// CreateTreatmentBooking persists a hospital treatment booking when a
// treatment path is configured and acknowledges it locally otherwise.
func (c *Client) CreateTreatmentBooking(ctx context.Context, booking TreatmentBooking) error {
	if c.treatmentPath == "" {
		c.logger.Info("treatment booking acknowledged locally",
			"treatment_id", booking.TreatmentID,
			"date", booking.Date,
			"time_slot", booking.TimeSlot,
		)
		return ctx.Err()
	}
	if err := c.doJSON(ctx, "create_treatment", http.MethodPost, c.treatmentPath, booking, nil); err != nil {
		return fmt.Errorf("create treatment booking: %w", err)
	}
	return nil
}

// ListDoctorAppointments returns every appointment stored for a doctor.
func (c *Client) ListDoctorAppointments(ctx context.Context, doctorID int) ([]Appointment, error) {
	path := fmt.Sprintf("/appointments/%d", doctorID)
	var out []Appointment
	if err := c.doJSON(ctx, "list_doctor_appointments", http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return out, nil
}

// LatestDoctorAppointment picks the appointment with the latest scheduled
// time. The backend gives no ordering guarantee, so array position only
// breaks ties. Returns nil when the doctor has no appointments.
func (c *Client) LatestDoctorAppointment(ctx context.Context, doctorID int) (*Appointment, error) {
	list, err := c.ListDoctorAppointments(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return Latest(list), nil
}

// Latest returns the appointment scheduled last. Entries with unparseable
// dates rank below every dated entry.
func Latest(list []Appointment) *Appointment {
	var (
		best     *Appointment
		bestTime time.Time
	)
	for i := range list {
		at := scheduledAt(list[i])
		if best == nil || !at.Before(bestTime) {
			best = &list[i]
			bestTime = at
		}
	}
	return best
}

func scheduledAt(a Appointment) time.Time {
	date, err := a.ParsedDate()
	if err != nil {
		return time.Time{}
	}
	slot, err := appointments.ParseTimeSlot(a.TimeSlot)
	if err != nil {
		return date
	}
	return date.Add(time.Duration(slot.Hour)*time.Hour + time.Duration(slot.Minute)*time.Minute)
}

// ListUserAppointments returns the appointments booked under email.
func (c *Client) ListUserAppointments(ctx context.Context, email string) ([]Appointment, error) {
	path := "/appointments/user/" + url.PathEscape(strings.TrimSpace(email))
	var out []Appointment
	if err := c.doJSON(ctx, "list_user_appointments", http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list user appointments: %w", err)
	}
	return out, nil
}

// Signup registers a user and returns the backend's confirmation message.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, "signup", http.MethodPost, "/signup", req, &resp); err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	return resp.Message, nil
}

// Login verifies credentials and returns the stored profile.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	body := map[string]string{"email": email, "password": password}
	var profile Profile
	if err := c.doJSON(ctx, "login", http.MethodPost, "/login", body, &profile); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &profile, nil
}

// SubmitContact stores a contact form submission.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) error {
	if err := c.doJSON(ctx, "submit_contact", http.MethodPost, "/contact", req, nil); err != nil {
		return fmt.Errorf("submit contact: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	ctx, span := tracer.Start(ctx, "backend."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("healthconnect.backend.path", path),
	)

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: parseDetail(respBody)}
		span.RecordError(apiErr)
		c.logger.Warn("backend API non-2xx response", "status", resp.StatusCode, "path", path, "body", truncate(string(respBody)))
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
