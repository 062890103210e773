package appointments

import "time"

// DateRule bounds the calendar days a patient may pick, counted in whole
// days from today.
type DateRule struct {
	MinOffsetDays int
	MaxOffsetDays int
}

var (
	// AppointmentDates allows tomorrow through one week out.
	AppointmentDates = DateRule{MinOffsetDays: 1, MaxOffsetDays: 7}
	// TreatmentDates allows three to thirty days out.
	TreatmentDates = DateRule{MinOffsetDays: 3, MaxOffsetDays: 30}
)

// DateRuleFor returns the rule that governs kind.
func DateRuleFor(kind Kind) DateRule {
	if kind == KindTreatment {
		return TreatmentDates
	}
	return AppointmentDates
}

// Bounds returns local midnight of today+min and the last millisecond of
// today+max, both in today's location.
func (r DateRule) Bounds(today time.Time) (time.Time, time.Time) {
	y, m, d := today.Date()
	loc := today.Location()
	start := time.Date(y, m, d+r.MinOffsetDays, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+r.MaxOffsetDays, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// IsSelectable reports whether candidate falls inside the inclusive bounds.
// The rule keeps no state; callers pass the current time on every query.
func (r DateRule) IsSelectable(candidate, today time.Time) bool {
	start, end := r.Bounds(today)
	return !candidate.Before(start) && !candidate.After(end)
}

// SelectableDays lists the midnight of every selectable day in order.
func (r DateRule) SelectableDays(today time.Time) []time.Time {
	start, end := r.Bounds(today)
	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// IsSelectable is the free-function form of DateRule.IsSelectable.
func IsSelectable(candidate, today time.Time, minOffsetDays, maxOffsetDays int) bool {
	return DateRule{MinOffsetDays: minOffsetDays, MaxOffsetDays: maxOffsetDays}.IsSelectable(candidate, today)
}
