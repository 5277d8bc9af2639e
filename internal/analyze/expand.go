package analyze

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"roomcal/internal/model"
)

// Expander turns raw bookings into concrete calendar occurrences within
// the planning year. Expansion is deterministic: the same booking and
// rule always produce the same occurrence set.
type Expander struct {
	year    int
	horizon time.Time
}

// NewExpander creates an Expander whose horizon is December 31 of the
// given planning year.
func NewExpander(year int) *Expander {
	return &Expander{
		year:    year,
		horizon: model.Date(year, time.December, 31),
	}
}

// Year returns the planning year this expander is bound to.
func (e *Expander) Year() int { return e.year }

// Expand returns the dated occurrences of a single booking, in
// ascending date order. A booking without a recurrence rule, with a
// rule that does not parse, or whose rule yields no dates at all,
// produces exactly one occurrence at its start date. That fallback is
// policy, not an error: a malformed rule must never lose the booking.
func (e *Expander) Expand(b *model.Booking) []model.Occurrence {
	single := []model.Occurrence{{Booking: b, Date: b.StartDate}}

	spec, ok := parseRule(b.Recurrence)
	if !ok {
		return single
	}

	opt := rrule.ROption{
		Dtstart: b.StartDate,
		Until:   e.horizon,
	}
	switch spec.kind {
	case ruleWeekly:
		opt.Freq = rrule.WEEKLY
	case ruleBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case ruleMonthly:
		// Nth weekday of each month; months lacking that ordinal are
		// skipped by RRULE semantics.
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{spec.weekday.Nth(spec.ordinal)}
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return single
	}

	dates := rr.All()
	if len(dates) == 0 {
		return single
	}

	occurrences := make([]model.Occurrence, 0, len(dates))
	for _, d := range dates {
		occurrences = append(occurrences, model.Occurrence{
			Booking: b,
			Date:    model.Date(d.Year(), d.Month(), d.Day()),
		})
	}
	return occurrences
}

// ExpandAll expands every booking, preserving input order between
// bookings.
func (e *Expander) ExpandAll(bookings []*model.Booking) []model.Occurrence {
	var out []model.Occurrence
	for _, b := range bookings {
		out = append(out, e.Expand(b)...)
	}
	return out
}

type ruleKind int

const (
	ruleWeekly ruleKind = iota
	ruleBiweekly
	ruleMonthly
)

type ruleSpec struct {
	kind    ruleKind
	ordinal int
	weekday rrule.Weekday
}

// Weekday names are exact, case-sensitive tokens from the sheet.
var weekdayTokens = map[string]rrule.Weekday{
	"Sunday":    rrule.SU,
	"Monday":    rrule.MO,
	"Tuesday":   rrule.TU,
	"Wednesday": rrule.WE,
	"Thursday":  rrule.TH,
	"Friday":    rrule.FR,
	"Saturday":  rrule.SA,
}

// parseRule parses a recurrence rule of the form Type[-Ordinal-Weekday].
// The boolean is false for empty or unrecognized rules, which the
// caller maps to the single-occurrence fallback.
func parseRule(s string) (ruleSpec, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ruleSpec{}, false
	}

	parts := strings.Split(s, "-")
	switch parts[0] {
	case "Weekly":
		// Trailing segments (e.g. "Weekly-Monday") are informational.
		return ruleSpec{kind: ruleWeekly}, true
	case "Biweekly":
		return ruleSpec{kind: ruleBiweekly}, true
	case "Monthly":
		if len(parts) < 3 {
			return ruleSpec{}, false
		}
		ordinal, ok := parseOrdinal(parts[1])
		if !ok {
			return ruleSpec{}, false
		}
		weekday, ok := weekdayTokens[parts[2]]
		if !ok {
			return ruleSpec{}, false
		}
		return ruleSpec{kind: ruleMonthly, ordinal: ordinal, weekday: weekday}, true
	default:
		return ruleSpec{}, false
	}
}

// parseOrdinal accepts "1st" through "5th" (a month never holds more
// than five of one weekday).
func parseOrdinal(s string) (int, bool) {
	digits := strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyz")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}
