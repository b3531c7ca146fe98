package gridcalc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/crhntr/gridcalc/expression"
)

const (
	DefaultColumns = 12
	DefaultRows    = 16
)

// Sheet holds the raw text of every non-empty cell in a bounded grid along with
// the cell being edited. Columns are indexed from zero and rows are numbered
// from one. A Sheet is not safe for concurrent mutation.
type Sheet struct {
	ColumnCount int
	RowCount    int

	// MaxDepth is passed to the evaluator. Zero uses expression.DefaultMaxDepth.
	MaxDepth int
	// Concurrency limits the goroutines used by Render. Zero means no limit.
	Concurrency int

	cells  map[expression.Position]string
	active *expression.Position
}

func NewSheet(columns, rows int) *Sheet {
	return &Sheet{
		ColumnCount: columns,
		RowCount:    rows,
		cells:       make(map[expression.Position]string),
	}
}

// Text implements expression.Table.
func (sheet *Sheet) Text(pos expression.Position) (string, bool) {
	text, ok := sheet.cells[pos]
	return text, ok
}

// Set stores the raw text for a cell. Blank text clears the cell.
func (sheet *Sheet) Set(pos expression.Position, text string) error {
	if err := sheet.CheckBounds(pos); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		delete(sheet.cells, pos)
		return nil
	}
	if sheet.cells == nil {
		sheet.cells = make(map[expression.Position]string)
	}
	sheet.cells[pos] = text
	return nil
}

func (sheet *Sheet) CheckBounds(pos expression.Position) error {
	if pos.Column < 0 || pos.Column >= sheet.ColumnCount {
		return fmt.Errorf("column index %d out of bounds [0, %d)", pos.Column, sheet.ColumnCount)
	}
	if pos.Row < 1 || pos.Row > sheet.RowCount {
		return fmt.Errorf("row %d out of bounds [1, %d]", pos.Row, sheet.RowCount)
	}
	return nil
}

// Positions returns the positions of non-empty cells in row order.
func (sheet *Sheet) Positions() []expression.Position {
	result := make([]expression.Position, 0, len(sheet.cells))
	for pos := range sheet.cells {
		result = append(result, pos)
	}
	slices.SortFunc(result, func(a, b expression.Position) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return result
}

// Snapshot copies the cell table so it can be read while the sheet changes.
func (sheet *Sheet) Snapshot() expression.MapTable {
	result := make(expression.MapTable, len(sheet.cells))
	for pos, text := range sheet.cells {
		result[pos] = text
	}
	return result
}

func (sheet *Sheet) Active() (expression.Position, bool) {
	if sheet.active == nil {
		return expression.Position{}, false
	}
	return *sheet.active, true
}

func (sheet *Sheet) StartEdit(pos expression.Position) error {
	if err := sheet.CheckBounds(pos); err != nil {
		return err
	}
	sheet.active = &pos
	return nil
}

func (sheet *Sheet) StopEdit() {
	sheet.active = nil
}

// Advance moves the active cell down one row, wrapping to the first row.
func (sheet *Sheet) Advance() {
	if sheet.active == nil {
		return
	}
	next := *sheet.active
	next.Row++
	if next.Row > sheet.RowCount {
		next.Row = 1
	}
	sheet.active = &next
}

func (sheet *Sheet) Rows() []Row { return rows(sheet.RowCount) }

func (sheet *Sheet) Columns() []Column { return columns(sheet.ColumnCount) }

func rows(n int) []Row {
	result := make([]Row, n)
	for i := range result {
		result[i].Number = i + 1
	}
	return result
}

func columns(n int) []Column {
	result := make([]Column, n)
	for i := range result {
		result[i].Number = i
	}
	return result
}

type Column struct {
	Number int
}

func (column Column) Label() string {
	return expression.ColumnLabel(column.Number)
}

type Row struct {
	Number int
}

func (row Row) Label() string {
	return strconv.Itoa(row.Number)
}
