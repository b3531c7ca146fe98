package expression_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crhntr/gridcalc/expression"
)

func TestTokens(t *testing.T) {
	t.Run("formula", func(t *testing.T) {
		tokens, err := expression.Tokens(" = A1 *(20)")
		require.NoError(t, err)
		assert.Equal(t, []expression.Token{
			{Type: expression.TokenEquals, Value: "=", Index: 1},
			{Type: expression.TokenReference, Value: "A1", Index: 3},
			{Type: expression.TokenMultiply, Value: "*", Index: 6},
			{Type: expression.TokenLeftParenthesis, Value: "(", Index: 7},
			{Type: expression.TokenNumber, Value: "20", Index: 8},
			{Type: expression.TokenRightParenthesis, Value: ")", Index: 10},
		}, tokens)
	})

	t.Run("tabs are whitespace", func(t *testing.T) {
		tokens, err := expression.Tokens("\t7\t")
		require.NoError(t, err)
		assert.Equal(t, []expression.Token{
			{Type: expression.TokenNumber, Value: "7", Index: 1},
		}, tokens)
	})

	t.Run("letters without a row", func(t *testing.T) {
		_, err := expression.Tokens("=abc")
		var parseErr *expression.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 4, parseErr.Offset)
		assert.ErrorIs(t, err, expression.ErrMalformed)
		assert.ErrorIs(t, err, expression.ErrUnexpectedToken)
	})

	t.Run("invalid character", func(t *testing.T) {
		_, err := expression.Tokens("=1 % 2")
		var parseErr *expression.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 3, parseErr.Offset)
		assert.ErrorIs(t, err, expression.ErrInvalidCharacter)
		assert.ErrorContains(t, err, `'%'`)
	})
}

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		Name  string
		Input string
		Expr  expression.Expr
	}{
		{
			Name:  "bare number",
			Input: "42",
			Expr:  expression.Number{Value: 42},
		},
		{
			Name:  "number with spaces",
			Input: "  42 ",
			Expr:  expression.Number{Value: 42},
		},
		{
			Name:  "formula number",
			Input: "=7",
			Expr:  expression.Number{Value: 7},
		},
		{
			Name:  "reference",
			Input: "=B12",
			Expr:  expression.Reference{Position: expression.Position{Column: 1, Row: 12}},
		},
		{
			Name:  "lower case reference",
			Input: "=b12",
			Expr:  expression.Reference{Position: expression.Position{Column: 1, Row: 12}},
		},
		{
			Name:  "multi letter column",
			Input: "=AA3",
			Expr:  expression.Reference{Position: expression.Position{Column: 26, Row: 3}},
		},
		{
			Name:  "binary",
			Input: "= 1 + A2",
			Expr: expression.Binary{
				Left:  expression.Number{Value: 1},
				Op:    expression.Add,
				Right: expression.Reference{Position: expression.Position{Column: 0, Row: 2}},
			},
		},
		{
			Name:  "no spaces",
			Input: "=8/2",
			Expr: expression.Binary{
				Left:  expression.Number{Value: 8},
				Op:    expression.Divide,
				Right: expression.Number{Value: 2},
			},
		},
		{
			Name:  "number in parens",
			Input: "=(1)",
			Expr:  expression.Number{Value: 1},
		},
		{
			Name:  "two sets of parens",
			Input: "=(1 + 2) * ( 3 - B1 )",
			Expr: expression.Binary{
				Left: expression.Binary{
					Left:  expression.Number{Value: 1},
					Op:    expression.Add,
					Right: expression.Number{Value: 2},
				},
				Op: expression.Multiply,
				Right: expression.Binary{
					Left:  expression.Number{Value: 3},
					Op:    expression.Subtract,
					Right: expression.Reference{Position: expression.Position{Column: 1, Row: 1}},
				},
			},
		},
		{
			Name:  "nested parens",
			Input: "=((A1))",
			Expr:  expression.Reference{Position: expression.Position{Column: 0, Row: 1}},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			node, err := expression.Parse(tt.Input)
			require.NoError(t, err)
			assert.Equal(t, tt.Expr, node)
		})
	}
}

func TestParse_malformed(t *testing.T) {
	for _, tt := range []struct {
		Name   string
		Input  string
		Offset int
		Err    error
	}{
		{Name: "empty", Input: "", Offset: 0, Err: expression.ErrEmpty},
		{Name: "only spaces", Input: "   ", Offset: 3, Err: expression.ErrEmpty},
		{Name: "missing right operand", Input: "=1+", Offset: 3, Err: expression.ErrUnexpectedEnd},
		{Name: "missing left operand", Input: "=+1", Offset: 1, Err: expression.ErrUnexpectedToken},
		{Name: "not a number", Input: "abc", Offset: 3, Err: expression.ErrUnexpectedToken},
		{Name: "reference without formula marker", Input: "A1", Offset: 0, Err: expression.ErrUnexpectedToken},
		{Name: "chained operators", Input: "=1+2+3", Offset: 4, Err: expression.ErrUnexpectedToken},
		{Name: "trailing garbage", Input: "12 13", Offset: 3, Err: expression.ErrUnexpectedToken},
		{Name: "unmatched open parenthesis", Input: "=(1+2", Offset: 5, Err: expression.ErrUnexpectedEnd},
		{Name: "unmatched close parenthesis", Input: "=1+2)", Offset: 4, Err: expression.ErrUnexpectedToken},
		{Name: "empty parentheses", Input: "=()", Offset: 2, Err: expression.ErrUnexpectedToken},
		{Name: "only formula marker", Input: "=", Offset: 1, Err: expression.ErrUnexpectedEnd},
		{Name: "double formula marker", Input: "==1", Offset: 1, Err: expression.ErrUnexpectedToken},
		{Name: "negative literal", Input: "-5", Offset: 0, Err: expression.ErrUnexpectedToken},
		{Name: "number overflow", Input: "9223372036854775808", Offset: 0, Err: expression.ErrNumberRange},
		{Name: "number overflow in formula", Input: "=1 + 99999999999999999999", Offset: 5, Err: expression.ErrNumberRange},
		{Name: "row overflow", Input: "=A99999999999999999999", Offset: 1, Err: expression.ErrNumberRange},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := expression.Parse(tt.Input)
			require.Error(t, err)

			var parseErr *expression.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.Input, parseErr.Input)
			assert.Equal(t, tt.Offset, parseErr.Offset)
			assert.ErrorIs(t, err, tt.Err)
			assert.ErrorIs(t, err, expression.ErrMalformed)
		})
	}

	t.Run("deep nesting", func(t *testing.T) {
		input := "=" + strings.Repeat("(", expression.MaxNesting+1) + "1" + strings.Repeat(")", expression.MaxNesting+1)
		_, err := expression.Parse(input)
		assert.ErrorIs(t, err, expression.ErrNestingTooDeep)
	})

	t.Run("nesting at the limit", func(t *testing.T) {
		input := "=" + strings.Repeat("(", expression.MaxNesting) + "1" + strings.Repeat(")", expression.MaxNesting)
		node, err := expression.Parse(input)
		require.NoError(t, err)
		assert.Equal(t, expression.Number{Value: 1}, node)
	})
}

func TestParseExpr(t *testing.T) {
	node, err := expression.ParseExpr(" A1 - 3 ")
	require.NoError(t, err)
	assert.Equal(t, expression.Binary{
		Left:  expression.Reference{Position: expression.Position{Column: 0, Row: 1}},
		Op:    expression.Subtract,
		Right: expression.Number{Value: 3},
	}, node)

	_, err = expression.ParseExpr("=A1")
	assert.ErrorIs(t, err, expression.ErrUnexpectedToken)
}

func TestFormat(t *testing.T) {
	t.Run("nil expression", func(t *testing.T) {
		assert.Equal(t, "", expression.Format(nil))
	})

	for _, tt := range []struct {
		Input, Output string
	}{
		{Input: "  5 ", Output: "5"},
		{Input: "=5", Output: "5"},
		{Input: "=a1", Output: "=A1"},
		{Input: "=1+2", Output: "=1 + 2"},
		{Input: "=(1+2)*(c3/4)", Output: "=(1 + 2) * (C3 / 4)"},
		{Input: "=((AB7))", Output: "=AB7"},
	} {
		t.Run(tt.Input, func(t *testing.T) {
			node, err := expression.Parse(tt.Input)
			require.NoError(t, err)
			out := expression.Format(node)
			assert.Equal(t, tt.Output, out)

			reparsed, err := expression.Parse(out)
			require.NoError(t, err)
			assert.Equal(t, node, reparsed)
		})
	}
}
