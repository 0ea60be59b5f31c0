package formsync

import "unicode/utf8"

const (
	// Sentinel fills header positions the submission has no value for.
	Sentinel = "N/A"
	// MaxCellLength is the Sheets per-cell limit, counted in characters.
	MaxCellLength = 50000
)

// Submission is one form post: field label to value.
type Submission map[string]string

// MappedRow is a submission laid out along a header row.
type MappedRow struct {
	Cells []string
	// Matched counts submission fields that found a column.
	Matched int
	// MinOrdinal and MaxOrdinal bound the matched columns, -1 when nothing
	// matched. They are informational only, the append always targets the
	// configured header range.
	MinOrdinal int
	MaxOrdinal int
}

// MapRow places each submission value under its header ordinal. The row is
// always width cells long; fields without a header are dropped and headers
// without a field get Sentinel. Oversized values are truncated.
func MapRow(ordinals map[string]int, width int, sub Submission) MappedRow {
	row := MappedRow{
		Cells:      make([]string, width),
		MinOrdinal: -1,
		MaxOrdinal: -1,
	}
	for i := range row.Cells {
		row.Cells[i] = Sentinel
	}
	for field, value := range sub {
		i, ok := ordinals[field]
		if !ok || i < 0 || i >= width {
			continue
		}
		row.Cells[i] = Truncate(value)
		row.Matched++
		if row.MinOrdinal == -1 || i < row.MinOrdinal {
			row.MinOrdinal = i
		}
		if i > row.MaxOrdinal {
			row.MaxOrdinal = i
		}
	}
	return row
}

// Truncate cuts v to its first MaxCellLength characters.
func Truncate(v string) string {
	if len(v) <= MaxCellLength || utf8.RuneCountInString(v) <= MaxCellLength {
		return v
	}
	n := 0
	for i := range v {
		if n == MaxCellLength {
			return v[:i]
		}
		n++
	}
	return v
}
