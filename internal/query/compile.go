package query

import "strconv"

// Op enumerates the built-in operators.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpIs
	OpWithin
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpIs:
		return "="
	case OpWithin:
		return "within"
	default:
		return "?"
	}
}

// LookupOp resolves an operator symbol.
func LookupOp(symbol string) (Op, bool) {
	switch symbol {
	case "and":
		return OpAnd, true
	case "or":
		return OpOr, true
	case "not":
		return OpNot, true
	case "=":
		return OpIs, true
	case "within":
		return OpWithin, true
	}
	return 0, false
}

// Compile tokenizes, parses and compiles an expression such as
// "(or (= Unix) (within 5 command line))".
func Compile(input string) (Predicate, error) {
	node, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return CompileNode(node)
}

// CompileNode turns an AST into a predicate tree. A bare symbol compiles
// to a Literal, which always matches.
func CompileNode(node Node) (Predicate, error) {
	switch n := node.(type) {
	case *SymbolNode:
		return Literal{Value: n.Value}, nil
	case *FormNode:
		return compileForm(n)
	default:
		return nil, newError(ErrSyntax, -1, "", "unexpected node %T", node)
	}
}

func compileForm(form *FormNode) (Predicate, error) {
	head, ok := form.Head()
	if !ok {
		first := form.Elements[0]
		return nil, newError(ErrUnknownOperator, first.Position(), first.String(), "operator must be a symbol")
	}
	op, ok := LookupOp(head.Value)
	if !ok {
		return nil, newError(ErrUnknownOperator, head.Position(), head.Value, "unknown operator %q", head.Value)
	}

	args := form.Args()
	switch op {
	case OpAnd:
		children, err := compileAll(args)
		if err != nil {
			return nil, err
		}
		return And{Children: children}, nil

	case OpOr:
		children, err := compileAll(args)
		if err != nil {
			return nil, err
		}
		return Or{Children: children}, nil

	case OpNot:
		if err := checkArity(head, args, 1); err != nil {
			return nil, err
		}
		child, err := CompileNode(args[0])
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil

	case OpIs:
		if err := checkArity(head, args, 1); err != nil {
			return nil, err
		}
		src, err := symbolArg(head, args[0])
		if err != nil {
			return nil, err
		}
		re, err := compilePattern(src)
		if err != nil {
			e := newError(ErrPattern, args[0].Position(), src, "%q is not a valid regular expression", src)
			e.Err = err
			return nil, e
		}
		return Is{Source: src, Pattern: re}, nil

	case OpWithin:
		if err := checkArity(head, args, 3); err != nil {
			return nil, err
		}
		var syms [3]string
		for i, a := range args {
			s, err := symbolArg(head, a)
			if err != nil {
				return nil, err
			}
			syms[i] = s
		}
		radius, err := strconv.Atoi(syms[0])
		if err != nil || radius < 0 {
			return nil, newError(ErrArgument, args[0].Position(), syms[0], "within: radius must be a non-negative integer")
		}
		return Within{Radius: radius, Anchor: syms[1], Target: syms[2]}, nil
	}

	return nil, newError(ErrUnknownOperator, head.Position(), head.Value, "operator %q has no compiler", head.Value)
}

func compileAll(nodes []Node) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(nodes))
	for _, n := range nodes {
		p, err := CompileNode(n)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func checkArity(head *SymbolNode, args []Node, want int) error {
	if len(args) != want {
		return newError(ErrArity, head.Position(), head.Value, "%s expects %d argument(s), got %d", head.Value, want, len(args))
	}
	return nil
}

func symbolArg(head *SymbolNode, arg Node) (string, error) {
	sym, ok := arg.(*SymbolNode)
	if !ok {
		return "", newError(ErrArgument, arg.Position(), arg.String(), "%s expects a symbol, got a form", head.Value)
	}
	return sym.Value, nil
}
