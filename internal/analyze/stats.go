package analyze

import (
	"fmt"
	"sort"

	"roomcal/internal/model"
)

// Summarize computes the summary view over the outputs of the three
// prior stages. It is a pure function; re-running it on the same inputs
// yields the same Stats, including ordering.
func Summarize(
	bookings []*model.Booking,
	occurrences []model.Occurrence,
	conflicts []model.ConflictPair,
	recommendations []model.Recommendation,
) model.Stats {
	rooms := make(map[string]bool)
	groups := make(map[string]bool)
	for _, b := range bookings {
		rooms[b.Room] = true
		groups[b.Group] = true
	}

	occurrencesByRoom := make(map[string]int)
	for _, occ := range occurrences {
		occurrencesByRoom[occ.Booking.Room]++
	}

	conflictsByRoom := make(map[string]int)
	for _, c := range conflicts {
		conflictsByRoom[c.Room]++
	}

	top := model.RoomConflicts{Room: model.NoConflictRoom, Count: 0}
	if len(conflictsByRoom) > 0 {
		ranked := make([]model.RoomConflicts, 0, len(conflictsByRoom))
		for room, count := range conflictsByRoom {
			ranked = append(ranked, model.RoomConflicts{Room: room, Count: count})
		}
		// Count descending; name ascending on ties so the report is
		// stable across runs.
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Count != ranked[j].Count {
				return ranked[i].Count > ranked[j].Count
			}
			return ranked[i].Room < ranked[j].Room
		})
		top = ranked[0]
	}

	percent := "100.0"
	if len(recommendations) > 0 {
		free := 0
		for _, r := range recommendations {
			if r.ConflictTotal == 0 {
				free++
			}
		}
		percent = fmt.Sprintf("%.1f", float64(free)/float64(len(recommendations))*100)
	}

	roomNames := make([]string, 0, len(rooms))
	for room := range rooms {
		roomNames = append(roomNames, room)
	}
	sort.Strings(roomNames)

	usage := make([]model.RoomUsage, 0, len(roomNames))
	for _, room := range roomNames {
		usage = append(usage, model.RoomUsage{
			Room:        room,
			Occurrences: occurrencesByRoom[room],
			Conflicts:   conflictsByRoom[room],
		})
	}

	return model.Stats{
		TotalBookings:        len(bookings),
		TotalOccurrences:     len(occurrences),
		TotalConflicts:       len(conflicts),
		TotalRooms:           len(rooms),
		TotalGroups:          len(groups),
		TotalRecommendations: len(recommendations),
		TopConflictRoom:      top,
		ConflictFreePercent:  percent,
		RoomUsage:            usage,
	}
}
