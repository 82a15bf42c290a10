package query

// Lexer splits an expression into parenthesis and symbol tokens.
// It does not check bracket balance; that is left to the parser.
type Lexer struct {
	input    string
	position int
	tokens   []Token
}

// NewLexer returns a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: make([]Token, 0),
	}
}

// Tokenize scans the whole input. Parentheses always become their own
// token, everything else is split on whitespace. Empty tokens are never
// produced.
func (l *Lexer) Tokenize() []Token {
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch {
		case c == '(':
			l.addToken(TokenLParen, "(", l.position)
			l.position++
		case c == ')':
			l.addToken(TokenRParen, ")", l.position)
			l.position++
		case isWhitespace(c):
			l.position++
		default:
			l.lexSymbol()
		}
	}
	return l.tokens
}

// lexSymbol consumes consecutive bytes up to the next parenthesis or whitespace.
func (l *Lexer) lexSymbol() {
	start := l.position
	for l.position < len(l.input) {
		c := l.input[l.position]
		if c == '(' || c == ')' || isWhitespace(c) {
			break
		}
		l.position++
	}
	if l.position > start {
		l.addToken(TokenSymbol, l.input[start:l.position], start)
	}
}

func (l *Lexer) addToken(tokenType TokenType, value string, pos int) {
	l.tokens = append(l.tokens, Token{
		Type:     tokenType,
		Value:    value,
		Position: pos,
	})
}

// isWhitespace reports ASCII whitespace only, so multi-byte UTF-8 symbols are
// never split in the middle.
func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Tokenize is a shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) []Token {
	return NewLexer(input).Tokenize()
}
