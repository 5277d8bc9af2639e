// Package analyze implements the booking analysis pipeline: recurrence
// expansion, conflict detection, room recommendation and summary stats.
// Every stage is a pure function of its inputs; a run recomputes all
// derived structures from scratch.
package analyze

import "roomcal/internal/model"

// Analysis is the complete output of one pipeline run.
type Analysis struct {
	Year            int
	Bookings        []*model.Booking
	Occurrences     []model.Occurrence
	Conflicts       []model.ConflictPair
	Recommendations []model.Recommendation
	Stats           model.Stats
}

// Run executes the full pipeline over the given bookings for one
// planning year.
func Run(bookings []*model.Booking, year int) *Analysis {
	expander := NewExpander(year)
	occurrences := expander.ExpandAll(bookings)
	conflicts := DetectConflicts(occurrences)
	recommendations := Recommend(bookings, conflicts)
	stats := Summarize(bookings, occurrences, conflicts, recommendations)

	return &Analysis{
		Year:            year,
		Bookings:        bookings,
		Occurrences:     occurrences,
		Conflicts:       conflicts,
		Recommendations: recommendations,
		Stats:           stats,
	}
}

// HasConflict reports whether any detected conflict touches the given
// room on the given occurrence date. The web calendar uses it to flag
// rows.
func (a *Analysis) HasConflict(occ model.Occurrence) bool {
	for _, c := range a.Conflicts {
		if c.Room == occ.Booking.Room && c.Date.Equal(occ.Date) {
			return true
		}
	}
	return false
}
