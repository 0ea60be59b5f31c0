package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for header ranges outside the supported
// <Col><Row>:<Col><Row> single-row, single-letter notation.
var ErrInvalidRange = errors.New("invalid header range")

// Columns past Z are not supported.
const maxColumns = 26

// HeaderRange is a parsed one-row cell range such as A1:J1.
type HeaderRange struct {
	StartCol int
	EndCol   int
	Row      int
}

// ParseHeaderRange parses s and checks that both cells sit on the same row.
func ParseHeaderRange(s string) (HeaderRange, error) {
	start, end, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), ":")
	if !ok {
		return HeaderRange{}, fmt.Errorf("%w %q: expected <Col><Row>:<Col><Row>", ErrInvalidRange, s)
	}
	startCol, startRow, err := parseCell(strings.TrimSpace(start))
	if err != nil {
		return HeaderRange{}, fmt.Errorf("%w %q: %v", ErrInvalidRange, s, err)
	}
	endCol, endRow, err := parseCell(strings.TrimSpace(end))
	if err != nil {
		return HeaderRange{}, fmt.Errorf("%w %q: %v", ErrInvalidRange, s, err)
	}
	if startRow != endRow {
		return HeaderRange{}, fmt.Errorf("%w %q: header must be a single row, got rows %d and %d", ErrInvalidRange, s, startRow, endRow)
	}
	if endCol < startCol {
		return HeaderRange{}, fmt.Errorf("%w %q: end column before start column", ErrInvalidRange, s)
	}
	return HeaderRange{StartCol: startCol, EndCol: endCol, Row: startRow}, nil
}

func parseCell(cell string) (col, row int, err error) {
	if len(cell) < 2 {
		return 0, 0, fmt.Errorf("cell %q too short", cell)
	}
	col, err = ColumnIndex(rune(cell[0]))
	if err != nil {
		return 0, 0, err
	}
	digits := cell[1:]
	if digits[0] < '0' || digits[0] > '9' {
		return 0, 0, fmt.Errorf("cell %q: only single-letter columns A-Z are supported", cell)
	}
	row, err = strconv.Atoi(digits)
	if err != nil {
		return 0, 0, fmt.Errorf("cell %q: bad row number", cell)
	}
	if row < 1 {
		return 0, 0, fmt.Errorf("cell %q: rows start at 1", cell)
	}
	return col, row, nil
}

// Width is the number of columns the range spans.
func (r HeaderRange) Width() int {
	return r.EndCol - r.StartCol + 1
}

func (r HeaderRange) String() string {
	return fmt.Sprintf("%s%d:%s%d", ColumnLetter(r.StartCol), r.Row, ColumnLetter(r.EndCol), r.Row)
}

// A1 renders the range qualified by sheet name, e.g. 'Form Responses'!A1:J1.
func (r HeaderRange) A1(sheetName string) string {
	return QuoteSheetName(sheetName) + "!" + r.String()
}

// QuoteSheetName quotes a sheet name for A1 notation when it contains
// anything other than letters, digits or underscores.
func QuoteSheetName(name string) string {
	plain := name != ""
	for _, c := range name {
		if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnIndex converts a column letter A-Z to its 0-based index.
func ColumnIndex(letter rune) (int, error) {
	if letter < 'A' || letter > 'Z' {
		return 0, fmt.Errorf("column %q outside A-Z", letter)
	}
	return int(letter - 'A'), nil
}

// ColumnLetter converts a 0-based index to its column letter. Indexes
// outside 0-25 yield "?".
func ColumnLetter(i int) string {
	if i < 0 || i >= maxColumns {
		return "?"
	}
	return string(rune('A' + i))
}
