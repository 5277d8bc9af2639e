// Package ingest is the ingestion collaborator for the analysis core:
// it turns the reservation sheet (a local CSV file or a remote CSV
// export URL) into the raw booking sequence the pipeline consumes.
// Malformed records are isolated here; the core itself never validates.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	appLog "roomcal/internal/log"
	"roomcal/internal/model"
)

// Expected header columns of the reservation sheet.
const (
	colGroup       = "Group"
	colActivity    = "Activity"
	colRoom        = "Room"
	colStatus      = "Status"
	colResponsible = "Responsible"
	colStartDate   = "Start Date"
	colStartTime   = "Start Time"
	colEndTime     = "End Time"
	colRecurrence  = "Recurrence"
)

const dateLayout = "2006-01-02"

// InvalidBookingError describes a single record that could not be
// ingested. The record is skipped and reported; a bad row never aborts
// the batch.
type InvalidBookingError struct {
	Row    int // 1-based data row number, excluding the header
	Field  string
	Reason string
}

func (e *InvalidBookingError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %s", e.Row, e.Field, e.Reason)
}

// ParseCSV reads booking records from a reservation-sheet CSV. It
// returns every valid booking plus one InvalidBookingError per skipped
// record. The returned error is non-nil only for input that cannot be
// read at all (missing header, unreadable stream).
func ParseCSV(r io.Reader) ([]*model.Booking, []error, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colGroup, colActivity, colRoom, colStatus, colResponsible, colStartDate, colStartTime} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("CSV header missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var bookings []*model.Booking
	var invalid []error
	row := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			invalid = append(invalid, &InvalidBookingError{Row: row, Field: "record", Reason: err.Error()})
			continue
		}

		b, perr := parseRecord(row, record, field)
		if perr != nil {
			appLog.Warn("ingest: skipping record", "row", row, "reason", perr.Error())
			invalid = append(invalid, perr)
			continue
		}
		b.ID = len(bookings) + 1
		bookings = append(bookings, b)
	}

	appLog.Info("ingest: CSV parsed", "bookings", len(bookings), "skipped", len(invalid))
	return bookings, invalid, nil
}

// ParseFile reads bookings from a CSV file on disk.
func ParseFile(path string) ([]*model.Booking, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

func parseRecord(row int, record []string, field func([]string, string) string) (*model.Booking, error) {
	startDateRaw := field(record, colStartDate)
	startDate, err := time.Parse(dateLayout, startDateRaw)
	if err != nil {
		return nil, &InvalidBookingError{Row: row, Field: colStartDate, Reason: fmt.Sprintf("%q is not an ISO date", startDateRaw)}
	}

	startTime, err := model.ParseClock(field(record, colStartTime))
	if err != nil {
		return nil, &InvalidBookingError{Row: row, Field: colStartTime, Reason: err.Error()}
	}

	endTime := model.NoEndTime
	if raw := field(record, colEndTime); raw != "" {
		endTime, err = model.ParseClock(raw)
		if err != nil {
			return nil, &InvalidBookingError{Row: row, Field: colEndTime, Reason: err.Error()}
		}
	}

	return &model.Booking{
		Group:       field(record, colGroup),
		Activity:    field(record, colActivity),
		Room:        field(record, colRoom),
		Status:      field(record, colStatus),
		Responsible: field(record, colResponsible),
		StartDate:   model.Date(startDate.Year(), startDate.Month(), startDate.Day()),
		StartTime:   startTime,
		EndTime:     endTime,
		Recurrence:  field(record, colRecurrence),
	}, nil
}
