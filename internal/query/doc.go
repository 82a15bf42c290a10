/*
Package query compiles tgrep expressions into predicate trees.

# Syntax

Expressions are fully parenthesized prefix forms separated by whitespace:

	expr := atom | "(" op expr* ")"
	op   := "and" | "or" | "not" | "=" | "within"

Parentheses are always tokens of their own, so a pattern can never
contain them.

# Operators

  - (and e...) true when every child is true, short-circuits on false.
  - (or e...) true when any child is true, short-circuits on true.
  - (not e) negates e.
  - (= pattern) the current token matches pattern, a regular expression
    anchored at the start of the token.
  - (within n anchor target) the current token is anchor and target occurs
    with at most n tokens in between, before or after it.

A bare atom compiles to a Literal, which always evaluates to true.

# Usage

	pred, err := query.Compile("(or (= Unix) (within 5 command line))")
	if err != nil {
		// errors.Is(err, query.ErrSyntax), query.ErrUnknownOperator, ...
	}
	ok := pred.Eval(cursor)

A compiled tree holds no per-evaluation state and may be shared between
goroutines, each evaluating against its own cursor.
*/
package query
