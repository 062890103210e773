// Package compliance records an immutable audit trail of booking activity.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	EventBookingConfirmed    AuditEventType = "booking.confirmed"
	EventBookingFailed       AuditEventType = "booking.failed"
	EventCommunicationOpened AuditEventType = "communication.opened"
	EventCommunicationDenied AuditEventType = "communication.denied"
	EventSessionLogin        AuditEventType = "session.login"
	EventSessionLogout       AuditEventType = "session.logout"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID           string          `json:"id"`
	EventType    AuditEventType  `json:"event_type"`
	SessionID    string          `json:"session_id,omitempty"`
	BookingID    string          `json:"booking_id,omitempty"`
	Subject      string          `json:"subject,omitempty"`
	PatientEmail string          `json:"patient_email,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditDetails contains event-specific details. Symptoms and other free-text
// patient notes are never recorded.
type AuditDetails struct {
	Kind            string     `json:"kind,omitempty"`
	AppointmentType string     `json:"appointment_type,omitempty"`
	TimeSlot        string     `json:"time_slot,omitempty"`
	ScheduledFor    *time.Time `json:"scheduled_for,omitempty"`
	Price           int        `json:"price,omitempty"`

	FailureReason string `json:"failure_reason,omitempty"`
	BackendStatus int    `json:"backend_status,omitempty"`

	Mode        string     `json:"mode,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// AuditService handles audit logging.
type AuditService struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	query := `
		INSERT INTO booking_audit_events (
			id, event_type, session_id, booking_id, subject,
			patient_email, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.SessionID),
		nullString(event.BookingID),
		nullString(event.Subject),
		nullString(event.PatientEmail),
		nullJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}

	return nil
}

// LogBookingConfirmed logs a booking acknowledged by the backend.
func (s *AuditService) LogBookingConfirmed(ctx context.Context, sessionID, bookingID string, rec appointments.Record, loc *time.Location) error {
	scheduled := rec.ScheduledAt(loc)
	details := AuditDetails{
		Kind:            string(rec.Kind),
		AppointmentType: string(rec.AppointmentType),
		TimeSlot:        rec.TimeSlot.Label(),
		ScheduledFor:    &scheduled,
		Price:           rec.Price,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType:    EventBookingConfirmed,
		SessionID:    sessionID,
		BookingID:    bookingID,
		Subject:      rec.Subject(),
		PatientEmail: rec.Email,
		Details:      detailsJSON,
	})
}

// LogBookingFailed logs a submission the backend did not acknowledge.
func (s *AuditService) LogBookingFailed(ctx context.Context, sessionID, bookingID, subject string, kind appointments.Kind, reason string, status int) error {
	details := AuditDetails{
		Kind:          string(kind),
		FailureReason: reason,
		BackendStatus: status,
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType: EventBookingFailed,
		SessionID: sessionID,
		BookingID: bookingID,
		Subject:   subject,
		Details:   detailsJSON,
	})
}

// LogCommunicationOpened logs entry into a chat or video screen.
func (s *AuditService) LogCommunicationOpened(ctx context.Context, sessionID, bookingID, subject string, mode appointments.CommunicationMode) error {
	detailsJSON, _ := json.Marshal(AuditDetails{Mode: string(mode)})

	return s.LogEvent(ctx, AuditEvent{
		EventType: EventCommunicationOpened,
		SessionID: sessionID,
		BookingID: bookingID,
		Subject:   subject,
		Details:   detailsJSON,
	})
}

// LogCommunicationDenied logs a refused chat or video entry.
func (s *AuditService) LogCommunicationDenied(ctx context.Context, sessionID, bookingID, subject string, denied *appointments.AccessDeniedError) error {
	details := AuditDetails{Mode: string(denied.Mode), FailureReason: denied.Error()}
	if denied.HasWindow {
		start, end := denied.Window.Start, denied.Window.End
		details.WindowStart = &start
		details.WindowEnd = &end
	}
	detailsJSON, _ := json.Marshal(details)

	return s.LogEvent(ctx, AuditEvent{
		EventType: EventCommunicationDenied,
		SessionID: sessionID,
		BookingID: bookingID,
		Subject:   subject,
		Details:   detailsJSON,
	})
}

// LogLogin logs a successful sign-in.
func (s *AuditService) LogLogin(ctx context.Context, sessionID, email string) error {
	return s.LogEvent(ctx, AuditEvent{EventType: EventSessionLogin, SessionID: sessionID, PatientEmail: email})
}

// LogLogout logs a sign-out.
func (s *AuditService) LogLogout(ctx context.Context, sessionID, email string) error {
	return s.LogEvent(ctx, AuditEvent{EventType: EventSessionLogout, SessionID: sessionID, PatientEmail: email})
}

// QueryEvents retrieves audit events with filters.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, session_id, booking_id, subject,
			   patient_email, details, created_at
		FROM booking_audit_events
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	if filter.BookingID != "" {
		query += fmt.Sprintf(" AND booking_id = $%d", argIdx)
		args = append(args, filter.BookingID)
		argIdx++
	}
	if len(filter.EventTypes) > 0 {
		types := make([]string, len(filter.EventTypes))
		for i, t := range filter.EventTypes {
			types[i] = string(t)
		}
		query += fmt.Sprintf(" AND event_type = ANY($%d)", argIdx)
		args = append(args, pq.Array(types))
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var sessionID, bookingID, subject, email sql.NullString
		var details []byte
		err := rows.Scan(
			&e.ID, &e.EventType, &sessionID, &bookingID, &subject,
			&email, &details, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.SessionID = sessionID.String
		e.BookingID = bookingID.String
		e.Subject = subject.String
		e.PatientEmail = email.String
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: iterate audit events: %w", err)
	}

	return events, nil
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	SessionID  string
	BookingID  string
	EventTypes []AuditEventType
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
