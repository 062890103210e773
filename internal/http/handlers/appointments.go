package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// AppointmentLookup reads stored appointments from the backend.
type AppointmentLookup interface {
	ListUserAppointments(ctx context.Context, email string) ([]backend.Appointment, error)
	LatestDoctorAppointment(ctx context.Context, doctorID int) (*backend.Appointment, error)
}

// AppointmentsHandler lists the signed-in user's appointments and reports
// whether a doctor's latest appointment is inside its access window.
type AppointmentsHandler struct {
	lookup AppointmentLookup
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger
}

func NewAppointmentsHandler(lookup AppointmentLookup, loc *time.Location, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentsHandler{lookup: lookup, loc: loc, now: time.Now, logger: logger}
}

type accessView struct {
	Mode   appointments.CommunicationMode `json:"mode"`
	Status appointments.AccessStatus      `json:"status"`
	Open   bool                           `json:"open"`
	Window *appointments.Window           `json:"window,omitempty"`
}

type appointmentView struct {
	backend.Appointment
	Access accessView `json:"access"`
}

// accessFor evaluates the window of a stored appointment at now. Unparseable
// dates or slots report closed.
func (h *AppointmentsHandler) accessFor(a backend.Appointment, now time.Time) accessView {
	view := accessView{Mode: appointments.AppointmentType(a.AppointmentType).Mode(), Status: appointments.AccessClosed}
	date, err := a.ParsedDate()
	if err != nil {
		return view
	}
	window, ok := appointments.AccessWindow(date.In(h.loc), a.TimeSlot)
	if !ok {
		return view
	}
	view.Window = &window
	view.Status = window.Status(now)
	view.Open = view.Status == appointments.AccessOpen && view.Mode != appointments.ModeNone
	return view
}

// ListMine handles GET /appointments
func (h *AppointmentsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	user, err := sc.CurrentUser()
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.lookup.ListUserAppointments(r.Context(), user.Email)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "status", backend.StatusCode(err))
		jsonError(w, "Failed to load appointments. Please try again.", http.StatusBadGateway)
		return
	}
	now := h.now()
	views := make([]appointmentView, 0, len(list))
	for _, a := range list {
		views = append(views, appointmentView{Appointment: a, Access: h.accessFor(a, now)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

// DoctorAccess handles GET /doctors/{doctorID}/access
func (h *AppointmentsHandler) DoctorAccess(w http.ResponseWriter, r *http.Request) {
	doctorID, err := intParam(r, "doctorID")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	latest, err := h.lookup.LatestDoctorAppointment(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to fetch latest appointment", "error", err, "doctor_id", doctorID)
		jsonError(w, "Failed to check appointment access. Please try again.", http.StatusBadGateway)
		return
	}
	resp := map[string]any{"doctorId": doctorID, "checkedAt": h.now()}
	if latest == nil {
		resp["appointment"] = nil
		resp["access"] = accessView{Mode: appointments.ModeNone, Status: appointments.AccessClosed}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp["appointment"] = latest
	resp["access"] = h.accessFor(*latest, h.now())
	writeJSON(w, http.StatusOK, resp)
}
