// Package ics publishes an analysis run as an iCalendar feed so the
// expanded occurrence set can be subscribed to from calendar apps.
package ics

import (
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"

	"roomcal/internal/analyze"
	"roomcal/internal/model"
)

// BuildCalendar renders one VEVENT per expanded occurrence. Conflicting
// occurrences are flagged in the event description.
func BuildCalendar(a *analyze.Analysis) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//roomcal//room booking analysis//EN")

	for _, occ := range a.Occurrences {
		b := occ.Booking
		start, end := b.Interval()

		startAt := clockOn(occ.Date, start)
		endAt := clockOn(occ.Date, end)
		if !endAt.After(startAt) {
			// Wrap-around booking (e.g. 23:00-02:00): the conflict
			// check treats it as same-day clock values, but a calendar
			// event needs a real end instant.
			endAt = endAt.AddDate(0, 0, 1)
		}

		ev := cal.AddEvent(fmt.Sprintf("roomcal-%d-%s", b.ID, occ.Date.Format("20060102")))
		ev.SetDtStampTime(occ.Date)
		ev.SetStartAt(startAt)
		ev.SetEndAt(endAt)
		ev.SetSummary(fmt.Sprintf("%s (%s)", b.Activity, b.Group))
		ev.SetLocation(b.Room)

		desc := fmt.Sprintf("Responsible: %s", b.Responsible)
		if b.Status != "" {
			desc += fmt.Sprintf("\nStatus: %s", b.Status)
		}
		if a.HasConflict(occ) {
			desc += "\nCONFLICT: another booking overlaps this room and time"
		}
		ev.SetDescription(desc)
	}

	return cal
}

// WriteFile serializes the calendar for the given analysis to path.
func WriteFile(path string, a *analyze.Analysis) error {
	data := BuildCalendar(a).Serialize()
	return os.WriteFile(path, []byte(data), 0o644)
}

func clockOn(date time.Time, clock model.ClockMinutes) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}
