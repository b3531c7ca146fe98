package gridcalc

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crhntr/gridcalc/expression"
)

// Result is the outcome of evaluating one cell during a render pass.
type Result struct {
	Position expression.Position
	Input    string
	Value    int64
	Err      error
}

func (result Result) ID() string {
	return "cell-" + result.Position.String()
}

// Display is what the grid shows for the cell: nothing for an empty cell,
// #ERR when evaluation failed and the integer otherwise.
func (result Result) Display() string {
	switch {
	case result.Input == "":
		return ""
	case result.Err != nil:
		return "#ERR"
	default:
		return strconv.FormatInt(result.Value, 10)
	}
}

func (result Result) ErrorMessage() string {
	if result.Err == nil {
		return ""
	}
	return result.Err.Error()
}

// Grid is a rendered Sheet.
type Grid struct {
	ColumnCount int
	RowCount    int
	Active      *expression.Position

	results map[expression.Position]Result
}

func (grid Grid) Cell(column, row int) Result {
	pos := expression.Position{Column: column, Row: row}
	if result, ok := grid.results[pos]; ok {
		return result
	}
	return Result{Position: pos}
}

func (grid Grid) IsActive(column, row int) bool {
	return grid.Active != nil && *grid.Active == expression.Position{Column: column, Row: row}
}

// Failed returns the cells that did not evaluate, in row order.
func (grid Grid) Failed() []Result {
	var result []Result
	for _, row := range grid.Rows() {
		for _, column := range grid.Columns() {
			if cell := grid.Cell(column.Number, row.Number); cell.Err != nil {
				result = append(result, cell)
			}
		}
	}
	return result
}

func (grid Grid) Rows() []Row {
	return rows(grid.RowCount)
}

func (grid Grid) Columns() []Column {
	return columns(grid.ColumnCount)
}

// Render evaluates every non-empty cell. Each cell is evaluated in its own
// goroutine against a snapshot of the sheet. Parsed cell text is shared
// between goroutines for the duration of the pass. Canceling ctx stops
// evaluations that are already running.
func (sheet *Sheet) Render(ctx context.Context) (Grid, error) {
	snapshot := sheet.Snapshot()
	positions := sheet.Positions()

	var cache parseCache
	ev := expression.Evaluator{
		MaxDepth: sheet.MaxDepth,
		Parse:    cache.parse,
	}

	results := make([]Result, len(positions))
	var group errgroup.Group
	if sheet.Concurrency > 0 {
		group.SetLimit(sheet.Concurrency)
	}
	for i, pos := range positions {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := ev.EvaluateAtContext(ctx, pos, snapshot)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i] = Result{
				Position: pos,
				Input:    snapshot[pos],
				Value:    value,
				Err:      err,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Grid{}, err
	}

	grid := Grid{
		ColumnCount: sheet.ColumnCount,
		RowCount:    sheet.RowCount,
		results:     make(map[expression.Position]Result, len(results)),
	}
	if active, ok := sheet.Active(); ok {
		grid.Active = &active
	}
	for _, result := range results {
		grid.results[result.Position] = result
	}
	return grid, nil
}

// parseCache memoizes Parse by cell text so a changed cell never reuses a
// tree parsed from its old text.
type parseCache struct {
	mu      sync.Mutex
	entries map[string]parsed
}

type parsed struct {
	expr expression.Expr
	err  error
}

func (cache *parseCache) parse(text string) (expression.Expr, error) {
	cache.mu.Lock()
	entry, ok := cache.entries[text]
	cache.mu.Unlock()
	if ok {
		return entry.expr, entry.err
	}

	e, err := expression.Parse(text)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.entries == nil {
		cache.entries = make(map[string]parsed)
	}
	cache.entries[text] = parsed{expr: e, err: err}
	return e, err
}
