package ics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomcal/internal/analyze"
	"roomcal/internal/model"
)

func testAnalysis() *analyze.Analysis {
	bookings := []*model.Booking{
		{
			ID:          1,
			Group:       "Choir",
			Activity:    "Rehearsal",
			Room:        "Room A",
			Responsible: "Dana",
			StartDate:   model.Date(2026, time.March, 2),
			StartTime:   9 * 60,
			EndTime:     12 * 60,
		},
		{
			ID:          2,
			Group:       "Band",
			Activity:    "Practice",
			Room:        "Room A",
			Responsible: "Sam",
			StartDate:   model.Date(2026, time.March, 2),
			StartTime:   11 * 60,
			EndTime:     14 * 60,
		},
	}
	return analyze.Run(bookings, 2026)
}

func TestBuildCalendar(t *testing.T) {
	out := BuildCalendar(testAnalysis()).Serialize()

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "UID:roomcal-1-20260302")
	assert.Contains(t, out, "SUMMARY:Rehearsal (Choir)")
	assert.Contains(t, out, "LOCATION:Room A")
	assert.Contains(t, out, "DTSTART:20260302T090000Z")
	assert.Contains(t, out, "DTEND:20260302T120000Z")

	// Both events overlap in Room A, so both carry the conflict marker.
	assert.Equal(t, 2, strings.Count(out, "CONFLICT"))
}

func TestBuildCalendarWrapAroundEndsNextDay(t *testing.T) {
	bookings := []*model.Booking{{
		ID:        1,
		Group:     "Night Shift",
		Activity:  "Inventory",
		Room:      "Storage",
		StartDate: model.Date(2026, time.June, 10),
		StartTime: 23 * 60,
		EndTime:   2 * 60,
	}}

	out := BuildCalendar(analyze.Run(bookings, 2026)).Serialize()

	assert.Contains(t, out, "DTSTART:20260610T230000Z")
	assert.Contains(t, out, "DTEND:20260611T020000Z")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ics")

	require.NoError(t, WriteFile(path, testAnalysis()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "END:VCALENDAR")
}
