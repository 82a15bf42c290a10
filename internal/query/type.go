package query

import (
	"fmt"
	"strings"
)

// TokenType defines the kinds of tokens produced by the lexer.
type TokenType int

const (
	TokenLParen TokenType = iota // '('
	TokenRParen                  // ')'
	TokenSymbol                  // operator name, numeric literal or pattern
)

func (t TokenType) String() string {
	switch t {
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Token is a single atom of an expression together with its byte offset.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// NodeType defines the AST node kinds.
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeForm
)

// Node is a parsed expression: either a bare symbol or a parenthesized form.
type Node interface {
	Type() NodeType
	String() string
	Position() int
}

var (
	_ Node = (*SymbolNode)(nil)
	_ Node = (*FormNode)(nil)
)

// SymbolNode is a leaf of the AST.
type SymbolNode struct {
	Value string
	pos   int
}

func (s *SymbolNode) Type() NodeType { return NodeSymbol }
func (s *SymbolNode) String() string { return s.Value }
func (s *SymbolNode) Position() int  { return s.pos }

// FormNode is a parenthesized list. By convention the first element is
// the operator symbol.
type FormNode struct {
	Elements []Node
	pos      int
}

func (f *FormNode) Type() NodeType { return NodeForm }
func (f *FormNode) Position() int  { return f.pos }

func (f *FormNode) String() string {
	parts := make([]string, len(f.Elements))
	for i, e := range f.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Head returns the leading symbol of the form, if there is one.
func (f *FormNode) Head() (*SymbolNode, bool) {
	if len(f.Elements) == 0 {
		return nil, false
	}
	sym, ok := f.Elements[0].(*SymbolNode)
	return sym, ok
}

// Args returns every element after the head.
func (f *FormNode) Args() []Node {
	if len(f.Elements) == 0 {
		return nil
	}
	return f.Elements[1:]
}
