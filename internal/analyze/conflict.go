package analyze

import (
	"time"

	"roomcal/internal/model"
)

// partitionKey buckets occurrences that could possibly collide: only
// occurrences sharing a room and a date are ever compared.
type partitionKey struct {
	room string
	date time.Time
}

// DetectConflicts finds every pair of occurrences from different
// bookings that share a room and date with overlapping time intervals.
//
// The input is partitioned by (room, date) before the pairwise check,
// which produces the same conflict set as a full O(n²) scan. Partitions
// are visited in first-seen order and pairs within a partition in input
// order, so the output order is reproducible for the same input.
func DetectConflicts(occurrences []model.Occurrence) []model.ConflictPair {
	buckets := make(map[partitionKey][]model.Occurrence)
	var order []partitionKey

	for _, occ := range occurrences {
		k := partitionKey{room: occ.Booking.Room, date: occ.Date}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], occ)
	}

	var pairs []model.ConflictPair
	for _, k := range order {
		part := buckets[k]
		for i := 0; i < len(part); i++ {
			for j := i + 1; j < len(part); j++ {
				a, b := part[i], part[j]
				// A booking never conflicts with its own occurrences.
				if a.Booking == b.Booking {
					continue
				}

				aStart, aEnd := a.Booking.Interval()
				bStart, bEnd := b.Booking.Interval()
				if !overlaps(aStart, aEnd, bStart, bEnd) {
					continue
				}

				pairs = append(pairs, model.ConflictPair{
					Room:   k.room,
					Date:   k.date,
					A:      a,
					B:      b,
					AStart: aStart,
					AEnd:   aEnd,
					BStart: bStart,
					BEnd:   bEnd,
				})
			}
		}
	}
	return pairs
}

// overlaps tests two half-open clock intervals [aStart, aEnd) and
// [bStart, bEnd). Intervals that merely touch do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd model.ClockMinutes) bool {
	return aStart < bEnd && bStart < aEnd
}
