package ingest

import (
	"bytes"
	"context"
	"errors"

	"roomcal/internal/model"
)

// Source describes where the reservation sheet lives: a local CSV file
// or a remote CSV export URL (one of the two must be set; Path wins
// when both are).
type Source struct {
	Path     string
	URL      string
	CacheDir string // disk cache for remote fetches
}

// Load reads and parses the booking batch from the source. The []error
// slice carries per-record InvalidBookingErrors for skipped rows.
func (s Source) Load(ctx context.Context) ([]*model.Booking, []error, error) {
	switch {
	case s.Path != "":
		return ParseFile(s.Path)
	case s.URL != "":
		res, err := NewFetcher(s.CacheDir).Fetch(ctx, s.URL)
		if err != nil {
			return nil, nil, err
		}
		return ParseCSV(bytes.NewReader(res.Body))
	default:
		return nil, nil, errors.New("no booking source configured")
	}
}
