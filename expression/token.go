package expression

type Token struct {
	Type  TokenType
	Value string
	Index int
}

type TokenType int

const (
	TokenNumber TokenType = iota
	TokenAdd
	TokenSubtract
	TokenMultiply
	TokenDivide
	TokenLeftParenthesis
	TokenRightParenthesis
	TokenReference
	TokenEquals
)

func (tt TokenType) String() string {
	switch tt {
	case TokenNumber:
		return "number"
	case TokenAdd, TokenSubtract, TokenMultiply, TokenDivide:
		return "operator"
	case TokenLeftParenthesis:
		return "("
	case TokenRightParenthesis:
		return ")"
	case TokenReference:
		return "reference"
	case TokenEquals:
		return "="
	default:
		return "unknown"
	}
}

func (token Token) operator() (Operator, bool) {
	switch token.Type {
	case TokenAdd:
		return Add, true
	case TokenSubtract:
		return Subtract, true
	case TokenMultiply:
		return Multiply, true
	case TokenDivide:
		return Divide, true
	default:
		return 0, false
	}
}

// Tokens splits cell text into tokens. Spaces and tabs separate tokens and are
// otherwise ignored. A reference is a run of letters immediately followed by a
// run of digits.
func Tokens(input string) ([]Token, error) {
	var tokens []Token

	for i := 0; i < len(input); i++ {
		c := input[i]

		if isDigit(c) {
			start := i
			for i < len(input) && isDigit(input[i]) {
				i++
			}
			tokens = append(tokens, Token{Index: start, Type: TokenNumber, Value: input[start:i]})
			i--
		} else if c == '+' {
			tokens = append(tokens, Token{Index: i, Type: TokenAdd, Value: "+"})
		} else if c == '-' {
			tokens = append(tokens, Token{Index: i, Type: TokenSubtract, Value: "-"})
		} else if c == '*' {
			tokens = append(tokens, Token{Index: i, Type: TokenMultiply, Value: "*"})
		} else if c == '/' {
			tokens = append(tokens, Token{Index: i, Type: TokenDivide, Value: "/"})
		} else if c == '(' {
			tokens = append(tokens, Token{Index: i, Type: TokenLeftParenthesis, Value: "("})
		} else if c == ')' {
			tokens = append(tokens, Token{Index: i, Type: TokenRightParenthesis, Value: ")"})
		} else if c == '=' {
			tokens = append(tokens, Token{Index: i, Type: TokenEquals, Value: "="})
		} else if isSpace(c) {
			continue
		} else if isLetter(c) {
			start := i
			for i < len(input) && isLetter(input[i]) {
				i++
			}
			if i >= len(input) || !isDigit(input[i]) {
				return nil, &ParseError{Input: input, Offset: i, Err: errMissingRow(input[start:i])}
			}
			for i < len(input) && isDigit(input[i]) {
				i++
			}
			tokens = append(tokens, Token{Index: start, Type: TokenReference, Value: input[start:i]})
			i--
		} else {
			return nil, &ParseError{Input: input, Offset: i, Err: errInvalidCharacter(input[i:])}
		}
	}

	return tokens, nil
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' }
func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
