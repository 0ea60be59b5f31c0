package formsync

import (
	"context"
	"fmt"
	"strings"

	"formsync/pkg/sheets"
)

// HeaderIndex is the header row of a sheet as discovered at authorization.
// Labels keep their physical position; blank cells stay as "" so ordinals
// line up with columns.
type HeaderIndex struct {
	labels []string
}

// NewHeaderIndex copies labels into a HeaderIndex.
func NewHeaderIndex(labels []string) HeaderIndex {
	return HeaderIndex{labels: append([]string(nil), labels...)}
}

// Len is the number of positions in the header row, blanks included.
func (h HeaderIndex) Len() int {
	return len(h.labels)
}

// Empty reports whether no position carries a label. Whitespace-only
// cells do not count as labels.
func (h HeaderIndex) Empty() bool {
	for _, l := range h.labels {
		if !blank(l) {
			return false
		}
	}
	return true
}

// Labels returns a copy of the discovered labels in column order.
func (h HeaderIndex) Labels() []string {
	return append([]string(nil), h.labels...)
}

// Ordinals maps each label to its 0-based position. Blank and
// whitespace-only labels are left out and a repeated label resolves to its
// rightmost column. Each call builds a fresh map from the same labels.
func (h HeaderIndex) Ordinals() map[string]int {
	ordinals := make(map[string]int, len(h.labels))
	for i, l := range h.labels {
		if blank(l) {
			continue
		}
		ordinals[l] = i
	}
	return ordinals
}

func blank(label string) bool {
	return strings.TrimSpace(label) == ""
}

// Map lays sub out along this header row.
func (h HeaderIndex) Map(sub Submission) MappedRow {
	return MapRow(h.Ordinals(), h.Len(), sub)
}

// Discover reads the header row at a1Range. Only the first returned row is
// used. A row without any label is reported as ErrNoHeaders.
func Discover(ctx context.Context, api sheets.SheetAPI, a1Range string) (HeaderIndex, error) {
	row, err := api.ReadRow(ctx, a1Range)
	if err != nil {
		return HeaderIndex{}, err
	}
	h := NewHeaderIndex(row)
	if h.Empty() {
		return HeaderIndex{}, fmt.Errorf("%w (%s)", ErrNoHeaders, a1Range)
	}
	return h, nil
}
