package analyze

import (
	"fmt"

	"roomcal/internal/model"
)

// sentinelConflictCount stands in for a missing option so that a
// present alternative always wins the comparison.
const sentinelConflictCount = 999

// Recommend picks the better room for every activity that was booked
// with multiple candidate rooms. Bookings are grouped by (group,
// activity, original start date); a group qualifies when it holds at
// least two bookings and at least one of them carries an option label.
//
// Only the bookings labeled "Option 1" and "Option 2" are scored;
// further candidates appear in the candidate list but are never
// recommended.
func Recommend(bookings []*model.Booking, conflicts []model.ConflictPair) []model.Recommendation {
	groups := make(map[model.GroupKey][]*model.Booking)
	var order []model.GroupKey

	for _, b := range bookings {
		k := model.GroupKey{Group: b.Group, Activity: b.Activity, StartDate: b.StartDate}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], b)
	}

	var recs []model.Recommendation
	for _, k := range order {
		candidates := groups[k]
		if len(candidates) < 2 {
			continue
		}

		var opt1, opt2 *model.Booking
		for _, c := range candidates {
			switch c.Status {
			case model.StatusOption1:
				if opt1 == nil {
					opt1 = c
				}
			case model.StatusOption2:
				if opt2 == nil {
					opt2 = c
				}
			}
		}
		if opt1 == nil && opt2 == nil {
			// Alternatives exist but none is labeled; there is no
			// choice to make.
			continue
		}

		count1 := sentinelConflictCount
		if opt1 != nil {
			count1 = countRoomDateConflicts(conflicts, opt1.Room, k)
		}
		count2 := sentinelConflictCount
		if opt2 != nil {
			count2 = countRoomDateConflicts(conflicts, opt2.Room, k)
		}

		room, justification := choose(opt1, opt2, count1, count2)

		list := make([]model.Candidate, 0, len(candidates))
		for _, c := range candidates {
			list = append(list, model.Candidate{Room: c.Room, Status: c.Status})
		}

		recs = append(recs, model.Recommendation{
			Key:           k,
			Responsible:   candidates[0].Responsible,
			Candidates:    list,
			Room:          room,
			Justification: justification,
			ConflictTotal: min(count1, count2),
		})
	}
	return recs
}

// countRoomDateConflicts counts conflict pairs on the option's room at
// the group's original start date (not the expanded occurrence dates).
func countRoomDateConflicts(conflicts []model.ConflictPair, room string, k model.GroupKey) int {
	n := 0
	for _, c := range conflicts {
		if c.Room == room && c.Date.Equal(k.StartDate) {
			n++
		}
	}
	return n
}

// choose applies the selection policy in its fixed order. Ties on
// nonzero counts deliberately favor Option 2.
func choose(opt1, opt2 *model.Booking, count1, count2 int) (room, justification string) {
	switch {
	case count1 == 0 && count2 == 0:
		return opt1.Room, "both free, Option 1 default"
	case count1 == 0:
		return opt1.Room, "Option 1 conflict-free"
	case count2 == 0:
		return opt2.Room, "Option 2 conflict-free"
	case opt1 != nil && (count1 < count2 || opt2 == nil):
		return opt1.Room, fmt.Sprintf("fewer conflicts (%d vs %d)", count1, count2)
	default:
		return opt2.Room, fmt.Sprintf("fewer conflicts (%d vs %d)", count2, count1)
	}
}
