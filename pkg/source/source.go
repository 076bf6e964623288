// Package source provides the BarSource boundary: the core consumes a
// finite, forward-only bar slice and is indifferent to where it came from.
package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nsequant/istbacktest/pkg/bar"
)

// BarSource yields the full bar slice for one symbol/timeframe. Fetching,
// caching, and gap handling are the implementation's problem; the core only
// ever sees a finite, timestamp-ascending slice.
type BarSource interface {
	Bars() ([]bar.Bar, error)
}

// InMemorySource wraps a pre-built slice, used by tests and any caller that
// already has bars in memory.
type InMemorySource struct {
	bars []bar.Bar
}

// NewInMemorySource wraps bars as a BarSource.
func NewInMemorySource(bars []bar.Bar) InMemorySource {
	return InMemorySource{bars: bars}
}

func (s InMemorySource) Bars() ([]bar.Bar, error) { return s.bars, nil }

// CSVSource reads minute bars from a CSV file with a
// timestamp,open,high,low,close,volume header row. Timestamps are parsed as
// RFC3339.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a CSVSource over path.
func NewCSVSource(path string) CSVSource {
	return CSVSource{Path: path}
}

func (s CSVSource) Bars() ([]bar.Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("csv source: open %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv source: read %s: %w", s.Path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	bars := make([]bar.Bar, 0, len(rows)-1)
	for i, row := range rows[1:] {
		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv source: row %d: %w", i+2, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseRow(row []string) (bar.Bar, error) {
	if len(row) < 6 {
		return bar.Bar{}, fmt.Errorf("expected 6 columns, got %d", len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return bar.Bar{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	vals := make([]float64, 5)
	for i, s := range row[1:6] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return bar.Bar{}, fmt.Errorf("field %d (%q): %w", i+1, s, err)
		}
		vals[i] = v
	}
	return bar.Bar{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
