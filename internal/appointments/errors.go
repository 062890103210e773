package appointments

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimeSlot        = errors.New("appointments: invalid time slot")
	ErrUnknownAppointmentType = errors.New("appointments: unknown appointment type")
	ErrUnknownGender          = errors.New("appointments: unknown gender")
)

// User-facing messages.
const (
	MissingInformationMessage          = "Please select a date and time slot for your appointment."
	MissingTreatmentInformationMessage = "Please select a date and time slot for your treatment."
	MissingPatientMessage              = "Please fill in all required patient details."
	DateNoLongerAvailableMessage       = "The selected date is no longer available. Please choose another date."
	BookingFailedMessage               = "There was an error booking your appointment. Please try again."
)

// ValidationError reports required fields that were not filled before
// submission. The booking stays editable.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: missing %s: %s", strings.Join(e.Fields, ", "), e.Message)
}

// MissingInformation is raised when the date or time slot is unset.
func MissingInformation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: MissingInformationMessage}
}

// MissingInformationFor picks the wording for appointment or treatment forms.
func MissingInformationFor(kind Kind, fields ...string) *ValidationError {
	if kind == KindTreatment {
		return &ValidationError{Fields: fields, Message: MissingTreatmentInformationMessage}
	}
	return MissingInformation(fields...)
}

// TransportError wraps a failed call to the appointment backend.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the patient after a failed submission.
func (e *TransportError) UserMessage() string { return BookingFailedMessage }

// AccessDeniedError refuses chat or video entry outside the access window.
type AccessDeniedError struct {
	Mode      CommunicationMode
	Window    Window
	HasWindow bool
	Now       time.Time
}

func (e *AccessDeniedError) Error() string {
	const layout = "January 2, 2006 at 03:04 PM"
	if !e.HasWindow {
		return fmt.Sprintf("%s access unavailable: appointment has no date or time slot", e.Mode)
	}
	if e.Now.Before(e.Window.Start) {
		return fmt.Sprintf("%s access opens on %s", e.Mode, e.Window.Start.Format(layout))
	}
	return fmt.Sprintf("%s access closed on %s", e.Mode, e.Window.End.Format(layout))
}

// NextAvailable returns when access opens next, or false when the window has
// passed or never existed.
func (e *AccessDeniedError) NextAvailable() (time.Time, bool) {
	if !e.HasWindow || !e.Now.Before(e.Window.Start) {
		return time.Time{}, false
	}
	return e.Window.Start, true
}
