package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

const (
	appointmentArrivalNote = "Please arrive 15 minutes before your scheduled appointment time"
	treatmentArrivalNote   = "You will need to arrive at the hospital 2 hours before the procedure"
	videoLinkNote          = "The meeting link will be active 5 minutes before your scheduled time."
	chatNote               = "You can open the chat with your doctor from 5 minutes before your scheduled time."
)

// ConfirmationNotifier emails the patient once a booking is confirmed.
type ConfirmationNotifier struct {
	sender EmailSender
	loc    *time.Location
	logger *logging.Logger
}

func NewConfirmationNotifier(sender EmailSender, loc *time.Location, logger *logging.Logger) *ConfirmationNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ConfirmationNotifier{sender: sender, loc: loc, logger: logger}
}

// NotifyConfirmed sends the confirmation email for rec. A record without a
// patient email is skipped.
func (n *ConfirmationNotifier) NotifyConfirmed(ctx context.Context, rec appointments.Record) error {
	if n == nil || n.sender == nil {
		return nil
	}
	if strings.TrimSpace(rec.Email) == "" {
		n.logger.Debug("notify: no patient email, skipping confirmation", "subject", rec.Subject())
		return nil
	}
	msg := ComposeConfirmation(rec, n.loc)
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("notify: failed to send confirmation", "error", err, "to", rec.Email)
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	n.logger.Info("notify: confirmation email sent", "to", rec.Email, "kind", rec.Kind)
	return nil
}

// ComposeConfirmation builds the confirmation email for rec, rendering the
// schedule in loc.
func ComposeConfirmation(rec appointments.Record, loc *time.Location) EmailMessage {
	if loc == nil {
		loc = time.Local
	}
	when := rec.Date.In(loc).Format("January 2, 2006")
	slot := rec.TimeSlot.Label()

	var subject, headline string
	var lines []string
	if rec.Kind == appointments.KindTreatment {
		subject = "Treatment Successfully Booked"
		headline = fmt.Sprintf("Your %s procedure is confirmed for %s at %s.", rec.TreatmentName, when, slot)
		lines = append(lines,
			"Hospital: "+rec.Hospital,
			"Doctor: "+rec.DoctorName,
			fmt.Sprintf("Fee: Rs. %d", rec.Price),
		)
	} else {
		subject = "Appointment Successfully Booked"
		headline = fmt.Sprintf("Your appointment with %s is confirmed for %s at %s.", rec.DoctorName, when, slot)
		lines = append(lines,
			"Specialization: "+rec.Specialization,
			"Type: "+string(rec.AppointmentType),
			fmt.Sprintf("Fee: Rs. %d", rec.Price),
		)
	}

	notes := confirmationNotes(rec)

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\n%s\n\n", rec.Name, headline)
	for _, line := range lines {
		text.WriteString(line + "\n")
	}
	text.WriteString("\n")
	for _, note := range notes {
		text.WriteString("- " + note + "\n")
	}

	var markup strings.Builder
	fmt.Fprintf(&markup, "<p>Hello %s,</p><p><strong>%s</strong></p><ul>", html.EscapeString(rec.Name), html.EscapeString(headline))
	for _, line := range lines {
		fmt.Fprintf(&markup, "<li>%s</li>", html.EscapeString(line))
	}
	markup.WriteString("</ul>")
	for _, note := range notes {
		fmt.Fprintf(&markup, "<p>%s</p>", html.EscapeString(note))
	}

	return EmailMessage{
		To:      rec.Email,
		ToName:  rec.Name,
		Subject: subject,
		Body:    text.String(),
		HTML:    markup.String(),
	}
}

func confirmationNotes(rec appointments.Record) []string {
	if rec.Kind == appointments.KindTreatment {
		return []string{treatmentArrivalNote}
	}
	switch rec.AppointmentType.Mode() {
	case appointments.ModeVideo:
		return []string{videoLinkNote}
	case appointments.ModeChat:
		return []string{chatNote}
	default:
		return []string{appointmentArrivalNote}
	}
}
