package expression

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxNesting limits how deeply parentheses may nest in one cell.
const MaxNesting = 256

// Expr is a parsed cell. It is one of Number, Reference or Binary.
type Expr interface {
	fmt.Stringer
	expr()
}

type Number struct {
	Value int64
}

type Reference struct {
	Position
}

type Binary struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (Number) expr()    {}
func (Reference) expr() {}
func (Binary) expr()    {}

func (n Number) String() string { return strconv.FormatInt(n.Value, 10) }

func (b Binary) String() string {
	return operand(b.Left) + " " + b.Op.String() + " " + operand(b.Right)
}

func operand(e Expr) string {
	if _, ok := e.(Binary); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

type Operator byte

const (
	Add      Operator = '+'
	Subtract Operator = '-'
	Multiply Operator = '*'
	Divide   Operator = '/'
)

func (op Operator) String() string { return string(rune(op)) }

// Format prints an expression as cell text. Numbers print bare and everything
// else prints as a formula.
func Format(e Expr) string {
	if e == nil {
		return ""
	}
	if n, ok := e.(Number); ok {
		return n.String()
	}
	return "=" + e.String()
}

// Parse parses the text of a cell. The text is either a number or a formula
// starting with "=" whose body is a single term or a single binary operation
// on two terms. Nested operations need parentheses.
func Parse(input string) (Expr, error) {
	tokens, err := Tokens(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}
	if len(tokens) == 0 {
		return nil, p.fail(len(input), ErrEmpty)
	}
	var result Expr
	if tokens[0].Type == TokenEquals {
		p.i++
		result, err = p.expression()
	} else {
		result, err = p.number()
	}
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParseExpr parses a formula body, the part after "=".
func ParseExpr(input string) (Expr, error) {
	tokens, err := Tokens(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}
	result, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return result, nil
}

type parser struct {
	input  string
	tokens []Token
	i      int
	depth  int
}

func (p *parser) fail(offset int, err error) error {
	return &ParseError{Input: p.input, Offset: offset, Err: err}
}

func (p *parser) peek() (Token, bool) {
	if p.i >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.i], true
}

func (p *parser) end() error {
	if token, ok := p.peek(); ok {
		return p.fail(token.Index, errUnexpected(token, "end of input"))
	}
	return nil
}

func (p *parser) expression() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	token, ok := p.peek()
	if !ok {
		return left, nil
	}
	op, isOperator := token.operator()
	if !isOperator {
		return left, nil
	}
	p.i++
	right, err := p.term()
	if err != nil {
		return nil, err
	}
	return Binary{Left: left, Op: op, Right: right}, nil
}

func (p *parser) term() (Expr, error) {
	token, ok := p.peek()
	if !ok {
		return nil, p.fail(len(p.input), fmt.Errorf("%w: expected number, reference or parenthesis", ErrUnexpectedEnd))
	}
	switch token.Type {
	case TokenNumber:
		return p.number()
	case TokenReference:
		p.i++
		pos, err := ParsePosition(token.Value)
		if err != nil {
			return nil, p.fail(token.Index, fmt.Errorf("%w: %w", ErrNumberRange, err))
		}
		return Reference{Position: pos}, nil
	case TokenLeftParenthesis:
		return p.bracket()
	default:
		return nil, p.fail(token.Index, errUnexpected(token, "number, reference or parenthesis"))
	}
}

func (p *parser) bracket() (Expr, error) {
	open := p.tokens[p.i]
	if p.depth >= MaxNesting {
		return nil, p.fail(open.Index, ErrNestingTooDeep)
	}
	p.i++
	p.depth++
	inner, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.depth--
	token, ok := p.peek()
	if !ok {
		return nil, p.fail(len(p.input), fmt.Errorf("%w: parenthesis at offset %d is missing closing parenthesis", ErrUnexpectedEnd, open.Index))
	}
	if token.Type != TokenRightParenthesis {
		return nil, p.fail(token.Index, errUnexpected(token, ")"))
	}
	p.i++
	return inner, nil
}

func (p *parser) number() (Expr, error) {
	token, ok := p.peek()
	if !ok {
		return nil, p.fail(len(p.input), fmt.Errorf("%w: expected number", ErrUnexpectedEnd))
	}
	if token.Type != TokenNumber {
		return nil, p.fail(token.Index, errUnexpected(token, "number"))
	}
	p.i++
	n, err := strconv.ParseInt(token.Value, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, p.fail(token.Index, fmt.Errorf("%w: %s", ErrNumberRange, token.Value))
		}
		return nil, p.fail(token.Index, err)
	}
	return Number{Value: n}, nil
}
