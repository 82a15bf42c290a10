package query

// Parser builds an AST from lexer tokens. It keeps a stack of the
// sibling lists that are still open.
type Parser struct {
	tokens []Token
}

// NewParser creates a parser over the given tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

type openForm struct {
	form   *FormNode
	parent []Node
}

// Parse consumes every token and returns the single top-level node.
// Unbalanced parentheses, empty forms and trailing top-level elements
// are reported as ErrSyntax.
func (p *Parser) Parse() (Node, error) {
	var (
		current []Node
		stack   []openForm
	)

	for _, tok := range p.tokens {
		switch tok.Type {
		case TokenLParen:
			stack = append(stack, openForm{
				form:   &FormNode{pos: tok.Position},
				parent: current,
			})
			current = nil

		case TokenRParen:
			if len(stack) == 0 {
				return nil, newError(ErrSyntax, tok.Position, tok.Value, "unexpected ')'")
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(current) == 0 {
				return nil, newError(ErrSyntax, top.form.pos, "()", "empty form")
			}
			top.form.Elements = current
			current = append(top.parent, top.form)

		default:
			current = append(current, &SymbolNode{Value: tok.Value, pos: tok.Position})
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1].form
		return nil, newError(ErrSyntax, open.pos, "(", "missing ')' for form opened here")
	}

	switch len(current) {
	case 0:
		return nil, newError(ErrSyntax, -1, "", "empty expression")
	case 1:
		return current[0], nil
	default:
		extra := current[1]
		return nil, newError(ErrSyntax, extra.Position(), extra.String(), "unexpected trailing element")
	}
}

// Parse tokenizes and parses an expression string.
func Parse(input string) (Node, error) {
	return NewParser(Tokenize(input)).Parse()
}
