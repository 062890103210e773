package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/booking"
	"github.com/wolfman30/healthconnect/internal/catalog"
	"github.com/wolfman30/healthconnect/internal/communication"
	"github.com/wolfman30/healthconnect/internal/session"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// errorBody is the JSON shape of domain failures.
type errorBody struct {
	Error         string     `json:"error"`
	Fields        []string   `json:"fields,omitempty"`
	NextAvailable *time.Time `json:"nextAvailable,omitempty"`
	Status        int        `json:"upstreamStatus,omitempty"`
}

// writeError maps the booking error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr    *appointments.ValidationError
		terr    *appointments.TransportError
		denied  *appointments.AccessDeniedError
		apiErr  *backend.APIError
		message = err.Error()
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Fields: verr.Fields})
	case errors.As(err, &terr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: terr.UserMessage(), Status: terr.Status})
	case errors.As(err, &denied):
		body := errorBody{Error: denied.Error()}
		if next, ok := denied.NextAvailable(); ok {
			body.NextAvailable = &next
		}
		writeJSON(w, http.StatusForbidden, body)
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		detail := backend.Detail(err)
		if detail == "" {
			detail = http.StatusText(status)
		}
		jsonError(w, detail, status)
	case errors.Is(err, session.ErrNotLoggedIn):
		jsonError(w, "Please login to continue.", http.StatusUnauthorized)
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, catalog.ErrDoctorNotFound),
		errors.Is(err, catalog.ErrTreatmentNotFound):
		jsonError(w, message, http.StatusNotFound)
	case errors.Is(err, booking.ErrSessionClosed):
		jsonError(w, message, http.StatusGone)
	case errors.Is(err, booking.ErrInvalidTransition):
		jsonError(w, message, http.StatusConflict)
	case errors.Is(err, booking.ErrDateUnavailable),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrTypeNotSupported),
		errors.Is(err, appointments.ErrUnknownAppointmentType),
		errors.Is(err, appointments.ErrUnknownGender),
		errors.Is(err, appointments.ErrInvalidTimeSlot),
		errors.Is(err, catalog.ErrInvalidGender),
		errors.Is(err, communication.ErrEmptyMessage):
		jsonError(w, message, http.StatusUnprocessableEntity)
	case errors.Is(err, communication.ErrRoomClosed):
		jsonError(w, message, http.StatusConflict)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// currentSession returns the session context attached by the Session
// middleware.
func currentSession(r *http.Request) (*session.Context, bool) {
	return session.FromContext(r.Context())
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
