package communication

import (
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

const (
	DefaultMeetLink = "https://meet.google.com/dyn-ieqr-pyo"
	VideoLinkNote   = "Note: The meeting link will be active 5 minutes before your scheduled time. Please join on time to avoid any delays."
)

// PreparationTips are shown in the lobby before the patient joins.
var PreparationTips = []string{
	"Make sure you have a stable internet connection",
	"Test your camera and microphone",
	"Find a quiet, well-lit place for the consultation",
	"Have your medical records ready if needed",
}

// VideoLobby is the pre-call screen for a video consultation. Joining the
// call itself happens on the external meeting service.
type VideoLobby struct {
	BookingID      string              `json:"bookingId"`
	Title          string              `json:"title"`
	DoctorName     string              `json:"doctorName"`
	Specialization string              `json:"specialization"`
	Date           string              `json:"date"`
	TimeSlot       string              `json:"timeSlot"`
	ScheduledAt    time.Time           `json:"scheduledAt"`
	MeetLink       string              `json:"meetLink"`
	Tips           []string            `json:"tips"`
	Note           string              `json:"note"`
	Window         appointments.Window `json:"window"`
}

// NewVideoLobby describes the lobby for rec with the schedule rendered in
// loc. An empty meetLink uses DefaultMeetLink.
func NewVideoLobby(bookingID string, rec appointments.Record, meetLink string, loc *time.Location) VideoLobby {
	if loc == nil {
		loc = time.Local
	}
	if meetLink == "" {
		meetLink = DefaultMeetLink
	}
	day := rec.Date.In(loc)
	window, _ := appointments.AccessWindow(day, rec.TimeSlot.Label())
	return VideoLobby{
		BookingID:      bookingID,
		Title:          "Video Consultation with " + displayName(rec.DoctorName),
		DoctorName:     rec.DoctorName,
		Specialization: rec.Specialization,
		Date:           day.Format("Monday, January 2, 2006"),
		TimeSlot:       rec.TimeSlot.Label(),
		ScheduledAt:    rec.ScheduledAt(loc),
		MeetLink:       meetLink,
		Tips:           append([]string(nil), PreparationTips...),
		Note:           VideoLinkNote,
		Window:         window,
	}
}

// Status reports whether the meeting link is usable at now.
func (l VideoLobby) Status(now time.Time) appointments.AccessStatus {
	return l.Window.Status(now)
}
