package model

import (
	"fmt"
	"time"
)

// Status labels that mark two alternative room candidates for the same
// activity. Matching is exact and case-sensitive; any other status text
// is carried through untouched.
const (
	StatusOption1 = "Option 1"
	StatusOption2 = "Option 2"
)

// DefaultDurationHours is added to the start time when a booking has no
// end time. The derived end is (startHour+3) mod 24 with the start's
// minute, so a late booking may wrap past midnight; such an interval is
// still treated as a same-day pair of clock values.
const DefaultDurationHours = 3

// ClockMinutes is a time of day expressed as minutes since midnight.
type ClockMinutes int

// NoEndTime marks a booking whose end-time field was empty.
const NoEndTime ClockMinutes = -1

// ParseClock parses an "HH:MM" value.
func ParseClock(s string) (ClockMinutes, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return ClockMinutes(h*60 + m), nil
}

func (c ClockMinutes) Hour() int   { return int(c) / 60 }
func (c ClockMinutes) Minute() int { return int(c) % 60 }

func (c ClockMinutes) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Date builds a timezone-free calendar date as a UTC-midnight instant.
// All date arithmetic in the pipeline goes through UTC so that host
// timezone and DST transitions can never shift a day boundary.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Booking is one raw record from the reservation sheet, immutable once
// ingested. ID is the input ordinal and identifies the booking across
// its expanded occurrences.
type Booking struct {
	ID          int
	Group       string
	Activity    string
	Room        string
	Status      string
	Responsible string

	StartDate time.Time // UTC midnight
	StartTime ClockMinutes
	EndTime   ClockMinutes // NoEndTime when absent

	Recurrence string // empty, "Weekly", "Biweekly", or "Monthly-<nth>-<Weekday>"
}

// Interval resolves the booking's effective [start, end) clock interval,
// deriving the end time when the record has none.
func (b *Booking) Interval() (start, end ClockMinutes) {
	start = b.StartTime
	end = b.EndTime
	if end == NoEndTime {
		end = ClockMinutes(((b.StartTime.Hour()+DefaultDurationHours)%24)*60 + b.StartTime.Minute())
	}
	return start, end
}

// Occurrence is one concrete calendar-dated instance of a booking. It
// references the source booking rather than copying it; one recurring
// booking fans out into many occurrences sharing the same record.
type Occurrence struct {
	Booking *Booking
	Date    time.Time // UTC midnight
}

// ConflictPair records two different bookings' occurrences colliding on
// the same room and date with overlapping time intervals. The resolved
// intervals of both sides are carried for display.
type ConflictPair struct {
	Room string
	Date time.Time

	A Occurrence
	B Occurrence

	AStart, AEnd ClockMinutes
	BStart, BEnd ClockMinutes
}

// GroupKey identifies a set of alternative bookings for one activity:
// same group, same activity, same original start date. It is a value
// type compared field by field, so delimiter characters inside field
// values cannot collide keys.
type GroupKey struct {
	Group     string
	Activity  string
	StartDate time.Time
}

// Candidate is one booking inside a recommendation group, as shown in
// the candidate list.
type Candidate struct {
	Room   string
	Status string
}

// Recommendation is the engine's pick for a group with multiple room
// candidates.
type Recommendation struct {
	Key         GroupKey
	Responsible string

	Candidates []Candidate

	Room          string // recommended room
	Justification string

	// ConflictTotal is the smaller of the two option conflict counts,
	// used by the stats stage.
	ConflictTotal int
}

// NoConflictRoom is reported as the top-conflict room when the analysis
// found no conflicts at all.
const NoConflictRoom = "none"

// RoomConflicts pairs a room with its conflict count.
type RoomConflicts struct {
	Room  string
	Count int
}

// RoomUsage is the per-room distribution shown in the stats view.
type RoomUsage struct {
	Room        string
	Occurrences int
	Conflicts   int
}

// Stats summarizes one analysis run.
type Stats struct {
	TotalBookings        int
	TotalOccurrences     int
	TotalConflicts       int
	TotalRooms           int
	TotalGroups          int
	TotalRecommendations int

	TopConflictRoom RoomConflicts

	// ConflictFreePercent is the share of recommendations whose
	// ConflictTotal is zero, formatted with one decimal ("100.0" when
	// there are no recommendations).
	ConflictFreePercent string

	RoomUsage []RoomUsage
}
