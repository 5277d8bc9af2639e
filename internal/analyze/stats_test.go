package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomcal/internal/model"
)

func TestSummarizeEmptyInput(t *testing.T) {
	st := Summarize(nil, nil, nil, nil)

	assert.Equal(t, 0, st.TotalBookings)
	assert.Equal(t, 0, st.TotalOccurrences)
	assert.Equal(t, 0, st.TotalConflicts)
	assert.Equal(t, "100.0", st.ConflictFreePercent)
	assert.Equal(t, model.RoomConflicts{Room: model.NoConflictRoom, Count: 0}, st.TopConflictRoom)
	assert.Empty(t, st.RoomUsage)
}

func TestSummarizeCountsAndTopRoom(t *testing.T) {
	date := model.Date(2026, time.April, 1)
	a := timedBooking(1, "Room A", clock(9, 0), clock(12, 0))
	b := timedBooking(2, "Room B", clock(9, 0), clock(12, 0))
	bookings := []*model.Booking{a, b}
	occurrences := []model.Occurrence{
		occurrenceOn(a, date),
		occurrenceOn(a, model.Date(2026, time.April, 8)),
		occurrenceOn(b, date),
	}
	conflicts := []model.ConflictPair{
		{Room: "Room B", Date: date},
		{Room: "Room B", Date: date},
		{Room: "Room A", Date: date},
	}

	st := Summarize(bookings, occurrences, conflicts, nil)

	assert.Equal(t, 2, st.TotalBookings)
	assert.Equal(t, 3, st.TotalOccurrences)
	assert.Equal(t, 3, st.TotalConflicts)
	assert.Equal(t, 2, st.TotalRooms)
	assert.Equal(t, 1, st.TotalGroups)
	assert.Equal(t, model.RoomConflicts{Room: "Room B", Count: 2}, st.TopConflictRoom)

	require.Len(t, st.RoomUsage, 2)
	assert.Equal(t, model.RoomUsage{Room: "Room A", Occurrences: 2, Conflicts: 1}, st.RoomUsage[0])
	assert.Equal(t, model.RoomUsage{Room: "Room B", Occurrences: 1, Conflicts: 2}, st.RoomUsage[1])
}

func TestSummarizeTopRoomTieBrokenByName(t *testing.T) {
	date := model.Date(2026, time.April, 1)
	conflicts := []model.ConflictPair{
		{Room: "Room Z", Date: date},
		{Room: "Room A", Date: date},
	}

	st := Summarize(nil, nil, conflicts, nil)

	assert.Equal(t, "Room A", st.TopConflictRoom.Room)
	assert.Equal(t, 1, st.TopConflictRoom.Count)
}

func TestSummarizeConflictFreePercent(t *testing.T) {
	recs := []model.Recommendation{
		{ConflictTotal: 0},
		{ConflictTotal: 2},
		{ConflictTotal: 0},
	}

	st := Summarize(nil, nil, nil, recs)

	assert.Equal(t, 3, st.TotalRecommendations)
	assert.Equal(t, "66.7", st.ConflictFreePercent)
}
