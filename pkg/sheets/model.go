package sheets

import (
	"context"
	"time"
)

// SheetAPI is the subset of the Sheets service the form engine talks to.
// Ranges are A1 notation qualified by sheet name.
type SheetAPI interface {
	ReadRow(ctx context.Context, a1Range string) ([]string, error)
	AppendRow(ctx context.Context, a1Range string, row []string) error
}

const (
	// ValueInputRaw stores values exactly as sent, never parsed as formulas.
	ValueInputRaw = "RAW"
	// InsertRows makes the service insert a new row after the table instead
	// of overwriting whatever follows it.
	InsertRows = "INSERT_ROWS"
	// MajorDimensionRows orders value blocks row by row.
	MajorDimensionRows = "ROWS"
)

// Options tunes how a SheetClient paces and retries calls. Zero values mean
// no pacing, no per-call timeout and no retries.
type Options struct {
	RequestsPerMinute int
	CallTimeout       time.Duration
	MaxRetries        int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
}

// DefaultOptions match the per-user write quota of the Sheets API.
func DefaultOptions() Options {
	return Options{
		RequestsPerMinute: 60,
		CallTimeout:       30 * time.Second,
		MaxRetries:        5,
		BaseBackoff:       time.Second,
		MaxBackoff:        60 * time.Second,
	}
}
