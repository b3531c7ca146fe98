package expression

import (
	"context"
	"fmt"
	"math"
)

// DefaultMaxDepth is the longest reference chain an Evaluator follows when
// MaxDepth is not set.
const DefaultMaxDepth = 1000

// Table gives the raw text of cells. Evaluation only reads from it.
type Table interface {
	Text(Position) (string, bool)
}

type MapTable map[Position]string

func (table MapTable) Text(pos Position) (string, bool) {
	text, ok := table[pos]
	return text, ok
}

// EvaluateCell parses raw and evaluates it against table. The boolean is false
// when the text is malformed or any reference it depends on can not be
// resolved to an integer.
func EvaluateCell(raw string, table Table) (int64, bool) {
	return Evaluator{}.Run(raw, table)
}

// Evaluator resolves formulas against a Table. The zero value is ready to use.
type Evaluator struct {
	// MaxDepth bounds the length of a reference chain.
	MaxDepth int

	// Parse is used for the top level text and for every referenced cell.
	// It defaults to the package level Parse.
	Parse func(string) (Expr, error)
}

func (ev Evaluator) Run(raw string, table Table) (int64, bool) {
	n, err := ev.Evaluate(raw, table)
	return n, err == nil
}

func (ev Evaluator) Evaluate(raw string, table Table) (int64, error) {
	return ev.EvaluateContext(context.Background(), raw, table)
}

// EvaluateContext is Evaluate with a context that is checked before every
// reference is resolved.
func (ev Evaluator) EvaluateContext(ctx context.Context, raw string, table Table) (int64, error) {
	e, err := ev.parse(raw)
	if err != nil {
		return 0, err
	}
	return ev.evaluate(newResolution(ctx, table), e)
}

// EvaluateExpr evaluates an already parsed expression.
func (ev Evaluator) EvaluateExpr(e Expr, table Table) (int64, error) {
	return ev.evaluate(newResolution(context.Background(), table), e)
}

// EvaluateAt evaluates the cell at pos as if it were referenced, so a cell
// that refers back to itself fails at the first step.
func (ev Evaluator) EvaluateAt(pos Position, table Table) (int64, error) {
	return ev.EvaluateAtContext(context.Background(), pos, table)
}

func (ev Evaluator) EvaluateAtContext(ctx context.Context, pos Position, table Table) (int64, error) {
	return ev.resolve(newResolution(ctx, table), pos)
}

func (ev Evaluator) parse(raw string) (Expr, error) {
	if ev.Parse != nil {
		return ev.Parse(raw)
	}
	return Parse(raw)
}

func (ev Evaluator) maxDepth() int {
	if ev.MaxDepth > 0 {
		return ev.MaxDepth
	}
	return DefaultMaxDepth
}

// resolution is the state of one top level evaluation. inProgress holds the
// cells on the current path and done holds the cells that already produced a
// value, so each cell is evaluated at most once per call.
type resolution struct {
	ctx        context.Context
	table      Table
	inProgress visitSet
	done       map[Position]int64
}

func newResolution(ctx context.Context, table Table) *resolution {
	return &resolution{
		ctx:        ctx,
		table:      table,
		inProgress: make(visitSet),
		done:       make(map[Position]int64),
	}
}

func (ev Evaluator) evaluate(r *resolution, e Expr) (int64, error) {
	switch e := e.(type) {
	case Number:
		return e.Value, nil
	case Binary:
		left, err := ev.evaluate(r, e.Left)
		if err != nil {
			return 0, err
		}
		right, err := ev.evaluate(r, e.Right)
		if err != nil {
			return 0, err
		}
		return e.Op.apply(left, right)
	case Reference:
		return ev.resolve(r, e.Position)
	default:
		return 0, &UnsupportedError{Expr: e}
	}
}

func (ev Evaluator) resolve(r *resolution, pos Position) (int64, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if value, ok := r.done[pos]; ok {
		return value, nil
	}
	if r.inProgress.check(pos) {
		return 0, &ReferenceError{Position: pos, Err: ErrCircularReference}
	}
	defer delete(r.inProgress, pos)
	if len(r.inProgress) > ev.maxDepth() {
		return 0, &ReferenceError{Position: pos, Err: ErrMaxDepth}
	}
	text, ok := r.table.Text(pos)
	if !ok {
		return 0, &ReferenceError{Position: pos, Err: ErrDanglingReference}
	}
	e, err := ev.parse(text)
	if err != nil {
		return 0, &ReferenceError{Position: pos, Err: err}
	}
	value, err := ev.evaluate(r, e)
	if err != nil {
		return 0, err
	}
	r.done[pos] = value
	return value, nil
}

// visitSet holds the cells on the current resolution path. A cell leaves the
// set once its branch returns so the same cell may be reached again through a
// sibling branch.
type visitSet map[Position]struct{}

func (set visitSet) check(pos Position) bool {
	if _, visited := set[pos]; visited {
		return true
	}
	set[pos] = struct{}{}
	return false
}

func (op Operator) apply(x, y int64) (int64, error) {
	switch op {
	case Add:
		if y > 0 && x > math.MaxInt64-y || y < 0 && x < math.MinInt64-y {
			return 0, errArithmetic(x, op, y, ErrIntegerOverflow)
		}
		return x + y, nil
	case Subtract:
		if y < 0 && x > math.MaxInt64+y || y > 0 && x < math.MinInt64+y {
			return 0, errArithmetic(x, op, y, ErrIntegerOverflow)
		}
		return x - y, nil
	case Multiply:
		if x == 0 || y == 0 {
			return 0, nil
		}
		result := x * y
		if result/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return 0, errArithmetic(x, op, y, ErrIntegerOverflow)
		}
		return result, nil
	case Divide:
		if y == 0 {
			return 0, errArithmetic(x, op, y, ErrDivisionByZero)
		}
		if x == math.MinInt64 && y == -1 {
			return 0, errArithmetic(x, op, y, ErrIntegerOverflow)
		}
		return x / y, nil
	default:
		panic(fmt.Sprintf("unknown operator %q", rune(op)))
	}
}

func errArithmetic(x int64, op Operator, y int64, err error) error {
	return fmt.Errorf("%d %s %d: %w", x, op, y, err)
}
