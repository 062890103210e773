package appointments

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot is a fixed scheduling bucket such as "04:00 PM", held in
// 24-hour form.
type TimeSlot struct {
	Hour   int
	Minute int
}

// ParseTimeSlot reads a "HH:MM AM|PM" label. 12 AM is hour 0 and 12 PM is
// hour 12.
func ParseTimeSlot(label string) (TimeSlot, error) {
	parts := strings.Fields(strings.TrimSpace(label))
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}

	switch strings.ToUpper(parts[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	return TimeSlot{Hour: hour, Minute: minute}, nil
}

// MustTimeSlot is ParseTimeSlot for compile-time constant labels.
func MustTimeSlot(label string) TimeSlot {
	slot, err := ParseTimeSlot(label)
	if err != nil {
		panic(err)
	}
	return slot
}

// Label renders the slot back to its "HH:MM AM|PM" form.
func (s TimeSlot) Label() string {
	suffix := "AM"
	hour := s.Hour
	if hour >= 12 {
		suffix = "PM"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, s.Minute, suffix)
}

func (s TimeSlot) String() string { return s.Label() }

// On places the slot on date's calendar day in date's location.
func (s TimeSlot) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, date.Location())
}

func (s TimeSlot) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

func (s *TimeSlot) UnmarshalText(text []byte) error {
	slot, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*s = slot
	return nil
}

// SlotSet is the ordered list of bookable slots for one kind of booking.
type SlotSet []TimeSlot

var (
	AppointmentSlots = SlotSet{
		MustTimeSlot("09:00 AM"), MustTimeSlot("10:00 AM"), MustTimeSlot("11:00 AM"),
		MustTimeSlot("12:00 PM"), MustTimeSlot("02:00 PM"), MustTimeSlot("03:00 PM"),
		MustTimeSlot("04:00 PM"), MustTimeSlot("05:00 PM"), MustTimeSlot("06:00 PM"),
	}
	TreatmentSlots = SlotSet{
		MustTimeSlot("08:00 AM"), MustTimeSlot("10:00 AM"), MustTimeSlot("12:00 PM"),
		MustTimeSlot("02:00 PM"), MustTimeSlot("04:00 PM"),
	}
)

// SlotsFor returns the slot set offered for kind.
func SlotsFor(kind Kind) SlotSet {
	if kind == KindTreatment {
		return TreatmentSlots
	}
	return AppointmentSlots
}

func (s SlotSet) Contains(slot TimeSlot) bool {
	for _, candidate := range s {
		if candidate == slot {
			return true
		}
	}
	return false
}

func (s SlotSet) Labels() []string {
	labels := make([]string, len(s))
	for i, slot := range s {
		labels[i] = slot.Label()
	}
	return labels
}
