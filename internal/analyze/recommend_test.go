package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomcal/internal/model"
)

func optionBooking(id int, room, status string, date time.Time) *model.Booking {
	return &model.Booking{
		ID:          id,
		Group:       "Choir",
		Activity:    "Concert",
		Room:        room,
		Status:      status,
		Responsible: "Dana",
		StartDate:   date,
		StartTime:   clock(19, 0),
		EndTime:     clock(21, 0),
	}
}

// roomConflicts fabricates n conflict pairs on a room and date; the
// recommendation engine only inspects those two fields.
func roomConflicts(room string, date time.Time, n int) []model.ConflictPair {
	pairs := make([]model.ConflictPair, n)
	for i := range pairs {
		pairs[i] = model.ConflictPair{Room: room, Date: date}
	}
	return pairs
}

func TestRecommendBothFree(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
	}

	recs := Recommend(bookings, nil)

	require.Len(t, recs, 1)
	assert.Equal(t, "Room A", recs[0].Room)
	assert.Equal(t, "both free, Option 1 default", recs[0].Justification)
	assert.Equal(t, 0, recs[0].ConflictTotal)
	assert.Equal(t, "Dana", recs[0].Responsible)
}

func TestRecommendOnlyOption1Free(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
	}
	conflicts := roomConflicts("Room B", date, 2)

	recs := Recommend(bookings, conflicts)

	require.Len(t, recs, 1)
	assert.Equal(t, "Room A", recs[0].Room)
	assert.Equal(t, "Option 1 conflict-free", recs[0].Justification)
}

func TestRecommendOnlyOption2Free(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
	}
	conflicts := roomConflicts("Room A", date, 1)

	recs := Recommend(bookings, conflicts)

	require.Len(t, recs, 1)
	assert.Equal(t, "Room B", recs[0].Room)
	assert.Equal(t, "Option 2 conflict-free", recs[0].Justification)
	assert.Equal(t, 0, recs[0].ConflictTotal)
}

func TestRecommendFewerConflictsWins(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
	}
	conflicts := append(roomConflicts("Room A", date, 1), roomConflicts("Room B", date, 3)...)

	recs := Recommend(bookings, conflicts)

	require.Len(t, recs, 1)
	assert.Equal(t, "Room A", recs[0].Room)
	assert.Equal(t, "fewer conflicts (1 vs 3)", recs[0].Justification)
	assert.Equal(t, 1, recs[0].ConflictTotal)
}

func TestRecommendTieFavorsOption2(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
	}
	conflicts := append(roomConflicts("Room A", date, 2), roomConflicts("Room B", date, 2)...)

	recs := Recommend(bookings, conflicts)

	require.Len(t, recs, 1)
	assert.Equal(t, "Room B", recs[0].Room, "equal nonzero counts must favor Option 2")
	assert.Equal(t, "fewer conflicts (2 vs 2)", recs[0].Justification)
	assert.Equal(t, 2, recs[0].ConflictTotal)
}

func TestRecommendMissingOption2UsesSentinel(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", "tentative", date),
	}
	conflicts := roomConflicts("Room A", date, 4)

	recs := Recommend(bookings, conflicts)

	require.Len(t, recs, 1)
	// Option 1 has 4 conflicts but the absent Option 2 counts as 999.
	assert.Equal(t, "Room A", recs[0].Room)
	assert.Equal(t, "fewer conflicts (4 vs 999)", recs[0].Justification)
	assert.Equal(t, 4, recs[0].ConflictTotal)
}

func TestRecommendSkipsUnlabeledGroups(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", "reserved", date),
		optionBooking(2, "Room B", "tentative", date),
	}

	recs := Recommend(bookings, nil)

	assert.Empty(t, recs, "groups without option labels offer no choice")
}

func TestRecommendSkipsSingleBookingGroups(t *testing.T) {
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, model.Date(2026, time.May, 9)),
	}

	recs := Recommend(bookings, nil)

	assert.Empty(t, recs)
}

func TestRecommendCandidateListIncludesAllBookings(t *testing.T) {
	date := model.Date(2026, time.May, 9)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, date),
		optionBooking(2, "Room B", model.StatusOption2, date),
		optionBooking(3, "Room C", "backup", date),
	}

	recs := Recommend(bookings, nil)

	require.Len(t, recs, 1)
	require.Len(t, recs[0].Candidates, 3)
	assert.Equal(t, model.Candidate{Room: "Room C", Status: "backup"}, recs[0].Candidates[2])
	// The unlabeled candidate is listed but never recommended.
	assert.NotEqual(t, "Room C", recs[0].Room)
}

func TestRecommendGroupsByStructuredKey(t *testing.T) {
	// Same group and activity on different start dates are separate
	// recommendation groups.
	d1 := model.Date(2026, time.May, 9)
	d2 := model.Date(2026, time.May, 16)
	bookings := []*model.Booking{
		optionBooking(1, "Room A", model.StatusOption1, d1),
		optionBooking(2, "Room B", model.StatusOption2, d1),
		optionBooking(3, "Room A", model.StatusOption1, d2),
		optionBooking(4, "Room B", model.StatusOption2, d2),
	}

	recs := Recommend(bookings, nil)

	require.Len(t, recs, 2)
	assert.Equal(t, d1, recs[0].Key.StartDate)
	assert.Equal(t, d2, recs[1].Key.StartDate)
}
