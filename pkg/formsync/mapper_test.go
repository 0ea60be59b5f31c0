package formsync

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapRow(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		sub     Submission
		want    []string
		matched int
		min     int
		max     int
	}{
		{
			name:    "partial match",
			headers: []string{"Name", "Email", "Submitted Timestamp"},
			sub:     Submission{"Name": "Ada", "Email": "a@example.com"},
			want:    []string{"Ada", "a@example.com", "N/A"},
			matched: 2, min: 0, max: 1,
		},
		{
			name:    "no match",
			headers: []string{"A", "B"},
			sub:     Submission{"C": "x"},
			want:    []string{"N/A", "N/A"},
			min:     -1, max: -1,
		},
		{
			name:    "empty submission",
			headers: []string{"A", "B", "C"},
			sub:     Submission{},
			want:    []string{"N/A", "N/A", "N/A"},
			min:     -1, max: -1,
		},
		{
			name:    "more fields than headers",
			headers: []string{"A"},
			sub:     Submission{"A": "1", "B": "2", "C": "3"},
			want:    []string{"1"},
			matched: 1, min: 0, max: 0,
		},
		{
			name:    "reordered columns",
			headers: []string{"Email", "", "Name"},
			sub:     Submission{"Name": "Ada", "Email": "a@example.com", "": "blank"},
			want:    []string{"a@example.com", "N/A", "Ada"},
			matched: 2, min: 0, max: 2,
		},
		{
			name:    "empty value kept",
			headers: []string{"A", "B"},
			sub:     Submission{"B": ""},
			want:    []string{"N/A", ""},
			matched: 1, min: 1, max: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHeaderIndex(tt.headers).Map(tt.sub)
			assert.Equal(t, tt.want, got.Cells)
			assert.Len(t, got.Cells, len(tt.headers))
			assert.Equal(t, tt.matched, got.Matched)
			assert.Equal(t, tt.min, got.MinOrdinal)
			assert.Equal(t, tt.max, got.MaxOrdinal)
		})
	}
}

func TestMapRowWidthInvariant(t *testing.T) {
	headers := NewHeaderIndex([]string{"f0", "f2", "f4", "f6"})
	for n := 0; n < 10; n++ {
		sub := Submission{}
		for i := 0; i < n; i++ {
			sub[fmt.Sprintf("f%d", i)] = "v"
		}
		row := headers.Map(sub)
		assert.Len(t, row.Cells, headers.Len(), "fields=%d", n)
		for _, c := range row.Cells {
			assert.Contains(t, []string{"v", Sentinel}, c)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 60000)
	assert.Equal(t, long[:MaxCellLength], Truncate(long))

	exact := strings.Repeat("y", MaxCellLength)
	assert.Equal(t, exact, Truncate(exact))

	assert.Equal(t, "short", Truncate("short"))
	assert.Equal(t, "", Truncate(""))

	// Counted in characters, not bytes.
	wide := strings.Repeat("é", MaxCellLength)
	assert.Equal(t, wide, Truncate(wide))
	got := Truncate(wide + "é")
	assert.Equal(t, wide, got)
}

func TestMapRowTruncatesPerValue(t *testing.T) {
	headers := NewHeaderIndex([]string{"Bio", "Name"})
	long := strings.Repeat("a", 60000)
	row := headers.Map(Submission{"Bio": long, "Name": "Ada"})
	assert.Equal(t, long[:MaxCellLength], row.Cells[0])
	assert.Equal(t, "Ada", row.Cells[1])
}

func TestOrdinals(t *testing.T) {
	h := NewHeaderIndex([]string{"Name", "", "Email", "Name", "  "})
	first := h.Ordinals()
	assert.Equal(t, map[string]int{"Name": 3, "Email": 2}, first)
	assert.Equal(t, 5, h.Len())
	first["Injected"] = 9
	assert.Equal(t, map[string]int{"Name": 3, "Email": 2}, h.Ordinals())
	assert.Equal(t, h.Ordinals(), h.Ordinals())
}

func TestHeaderIndexCopies(t *testing.T) {
	labels := []string{"A", "B"}
	h := NewHeaderIndex(labels)
	labels[0] = "changed"
	assert.Equal(t, []string{"A", "B"}, h.Labels())
	out := h.Labels()
	out[1] = "changed"
	assert.Equal(t, []string{"A", "B"}, h.Labels())
	assert.False(t, h.Empty())
	assert.True(t, NewHeaderIndex([]string{"", ""}).Empty())
	whitespace := NewHeaderIndex([]string{" ", "\t"})
	assert.True(t, whitespace.Empty())
	assert.Empty(t, whitespace.Ordinals())
	assert.Equal(t, []string{" ", "\t"}, whitespace.Labels())
	assert.True(t, NewHeaderIndex(nil).Empty())
}
