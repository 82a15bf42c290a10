package query

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Window is the read-only view of a token cursor that predicates
// evaluate against.
type Window interface {
	// Current returns the token under the cursor.
	Current() string
	// Behind returns up to n tokens immediately before the current one, oldest first.
	Behind(n int) []string
	// Ahead returns up to n tokens immediately after the current one.
	Ahead(n int) []string
}

// Predicate is a compiled, immutable test over a Window. The set of
// implementations is closed to this package.
type Predicate interface {
	Eval(w Window) bool
	String() string
	predicate()
}

var (
	_ Predicate = And{}
	_ Predicate = Or{}
	_ Predicate = Not{}
	_ Predicate = Is{}
	_ Predicate = Within{}
	_ Predicate = Literal{}
)

// And is true when every child is true. Children are evaluated left to
// right and evaluation stops at the first false child. An empty And is true.
type And struct {
	Children []Predicate
}

func (And) predicate() {}

func (p And) Eval(w Window) bool {
	for _, c := range p.Children {
		if !c.Eval(w) {
			return false
		}
	}
	return true
}

func (p And) String() string { return formString(OpAnd, p.Children) }

// Or is true when any child is true, stopping at the first one.
// An empty Or is false.
type Or struct {
	Children []Predicate
}

func (Or) predicate() {}

func (p Or) Eval(w Window) bool {
	for _, c := range p.Children {
		if c.Eval(w) {
			return true
		}
	}
	return false
}

func (p Or) String() string { return formString(OpOr, p.Children) }

// Not negates its child.
type Not struct {
	Child Predicate
}

func (Not) predicate() {}

func (p Not) Eval(w Window) bool { return !p.Child.Eval(w) }

func (p Not) String() string { return formString(OpNot, []Predicate{p.Child}) }

// Is matches the current token against a regular expression anchored at
// the start of the token only, so "(= quick)" also accepts "quickly".
type Is struct {
	Source  string
	Pattern *regexp.Regexp
}

func (Is) predicate() {}

func (p Is) Eval(w Window) bool { return p.Pattern.MatchString(w.Current()) }

func (p Is) String() string { return fmt.Sprintf("(%s %s)", OpIs, p.Source) }

// compilePattern anchors src at the start of the token.
func compilePattern(src string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + src + `)`)
}

// Within is true when the current token equals Anchor and Target occurs
// with at most Radius other tokens between the two, on either side.
type Within struct {
	Radius int
	Anchor string
	Target string
}

func (Within) predicate() {}

func (p Within) Eval(w Window) bool {
	if w.Current() != p.Anchor {
		return false
	}
	// the target itself sits one position past the tokens in between
	span := p.Radius
	if span < math.MaxInt {
		span++
	}
	return slices.Contains(w.Behind(span), p.Target) || slices.Contains(w.Ahead(span), p.Target)
}

func (p Within) String() string {
	return fmt.Sprintf("(%s %s %s %s)", OpWithin, strconv.Itoa(p.Radius), p.Anchor, p.Target)
}

// Literal is produced for a bare symbol and always evaluates to true.
type Literal struct {
	Value string
}

func (Literal) predicate() {}

func (Literal) Eval(Window) bool { return true }

func (p Literal) String() string { return p.Value }

func formString(op Op, children []Predicate) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(op.String())
	for _, c := range children {
		b.WriteByte(' ')
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}
