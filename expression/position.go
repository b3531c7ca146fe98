package expression

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile("^(?P<column>[A-Za-z]+)(?P<row>[0-9]+)$")

// Position identifies a cell. Column is zero based (A is 0, AA is 26) and Row
// is the row number as it is written in a reference.
type Position struct {
	Column, Row int
}

func (pos Position) String() string {
	return ColumnLabel(pos.Column) + strconv.Itoa(pos.Row)
}

// Less orders positions by row and then by column.
func (pos Position) Less(other Position) bool {
	if pos.Row != other.Row {
		return pos.Row < other.Row
	}
	return pos.Column < other.Column
}

// ParsePosition parses a cell label like A4 or ab12. A "cell-" prefix, as used
// in element ids, is ignored.
func ParsePosition(in string) (Position, error) {
	in = strings.TrimPrefix(in, "cell-")
	parts := identifierPattern.FindStringSubmatch(in)
	if parts == nil {
		return Position{}, fmt.Errorf("unexpected identifier pattern %q expected something like A4", in)
	}
	row, err := strconv.Atoi(parts[identifierPattern.SubexpIndex("row")])
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse row number: %w", err)
	}
	column, err := columnNumber(parts[identifierPattern.SubexpIndex("column")])
	if err != nil {
		return Position{}, err
	}
	return Position{Column: column, Row: row}, nil
}

func columnNumber(label string) (int, error) {
	const maxColumn = 1 << 20
	result := 0
	for _, char := range strings.ToUpper(label) {
		result = result*26 + int(char) - 'A' + 1
		if result > maxColumn {
			return 0, fmt.Errorf("column %s out of range", label)
		}
	}
	return result - 1, nil
}

// ColumnLabel returns the letters for a zero based column index.
func ColumnLabel(n int) string {
	result := ""
	for n >= 0 {
		remainder := n % 26
		result = fmt.Sprintf("%c", remainder+'A') + result
		n = n/26 - 1
	}
	return result
}
