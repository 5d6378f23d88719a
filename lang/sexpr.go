package lang

import (
	"fmt"

	"github.com/strager/whilejvm/sexy"
)

// DecodeError reports a malformed s-expression program.
type DecodeError struct {
	Pos sexy.Pos
	Msg string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// EntryPoint names the function to mark as the program entry point when
	// no function carries ^{entry: true}. Empty disables the fallback.
	EntryPoint string
}

// Parse parses and decodes the s-expression form of a typed program.
func Parse(input string, opts DecodeOptions) (*Program, error) {
	node, err := sexy.Parse(input)
	if err != nil {
		return nil, err
	}
	return Decode(node, opts)
}

// Decode converts a (program ...) datum into a Program.
func Decode(node *sexy.Node, opts DecodeOptions) (*Program, error) {
	d := &decoder{}
	if node.Head() != "program" {
		return nil, d.errorf(node, "expected (program ...)")
	}
	prog := &Program{}
	for _, item := range node.Items[1:] {
		decl, err := d.decl(item)
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}

	hasEntry := false
	for _, f := range prog.Functions() {
		hasEntry = hasEntry || f.EntryPoint
	}
	if !hasEntry && opts.EntryPoint != "" {
		if f := prog.Function(opts.EntryPoint); f != nil {
			f.EntryPoint = true
		}
	}
	return prog, nil
}

type decoder struct{}

func (d *decoder) errorf(node *sexy.Node, format string, args ...any) error {
	return &DecodeError{Pos: node.Pos, Msg: fmt.Sprintf(format, args...)}
}

// pos prefers an explicit ^{line: N, col: M} annotation over the position of
// the datum itself.
func (d *decoder) pos(node *sexy.Node) Pos {
	if line := node.Meta("line"); line != nil && line.Type == sexy.NodeInteger {
		p := Pos{Line: int(line.Integer)}
		if col := node.Meta("col"); col != nil && col.Type == sexy.NodeInteger {
			p.Col = int(col.Integer)
		}
		return p
	}
	return Pos{Line: node.Pos.Line, Col: node.Pos.Col}
}

func (d *decoder) arity(node *sexy.Node, min, max int) error {
	n := len(node.Items) - 1
	if n < min || (max >= 0 && n > max) {
		return d.errorf(node, "malformed (%s ...): %d operands", node.Head(), n)
	}
	return nil
}

func (d *decoder) symbol(node *sexy.Node) (string, error) {
	if node.Type != sexy.NodeSymbol {
		return "", d.errorf(node, "expected symbol, got %s", node.Type)
	}
	return node.Text, nil
}

func (d *decoder) decl(node *sexy.Node) (Decl, error) {
	switch node.Head() {
	case "fun":
		if err := d.arity(node, 3, -1); err != nil {
			return nil, err
		}
		name, err := d.symbol(node.Items[1])
		if err != nil {
			return nil, err
		}
		ret, err := d.typ(node.Items[2])
		if err != nil {
			return nil, err
		}
		params, err := d.params(node.Items[3])
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(node.Items[4:])
		if err != nil {
			return nil, err
		}
		return &FunDecl{
			Pos:        d.pos(node),
			Name:       name,
			Params:     params,
			Return:     ret,
			Body:       body,
			EntryPoint: node.Meta("entry").IsSymbol("true"),
		}, nil

	case "type":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		name, err := d.symbol(node.Items[1])
		if err != nil {
			return nil, err
		}
		t, err := d.typ(node.Items[2])
		if err != nil {
			return nil, err
		}
		return &TypeDecl{Pos: d.pos(node), Name: name, Type: t}, nil

	default:
		return nil, d.errorf(node, "expected declaration, got %s", node)
	}
}

func (d *decoder) params(node *sexy.Node) ([]Parameter, error) {
	if node.Type != sexy.NodeList {
		return nil, d.errorf(node, "expected parameter list")
	}
	var params []Parameter
	for _, p := range node.Items {
		if p.Type != sexy.NodeList || len(p.Items) != 2 {
			return nil, d.errorf(p, "expected (name type) parameter")
		}
		name, err := d.symbol(p.Items[0])
		if err != nil {
			return nil, err
		}
		t, err := d.typ(p.Items[1])
		if err != nil {
			return nil, err
		}
		params = append(params, Parameter{Name: name, Type: t})
	}
	return params, nil
}

func (d *decoder) typ(node *sexy.Node) (Type, error) {
	if node.Type == sexy.NodeSymbol {
		switch node.Text {
		case "void":
			return Void, nil
		case "bool":
			return Bool, nil
		case "int":
			return Int, nil
		case "string":
			return String, nil
		default:
			return &NamedType{Name: node.Text}, nil
		}
	}

	switch node.Head() {
	case "list":
		if err := d.arity(node, 1, 1); err != nil {
			return nil, err
		}
		elem, err := d.typ(node.Items[1])
		if err != nil {
			return nil, err
		}
		return ListOf(elem), nil
	case "record":
		rec := &RecordType{}
		for _, f := range node.Items[1:] {
			if f.Type != sexy.NodeList || len(f.Items) != 2 {
				return nil, d.errorf(f, "expected (name type) field")
			}
			name, err := d.symbol(f.Items[0])
			if err != nil {
				return nil, err
			}
			if rec.FieldIndex(name) >= 0 {
				return nil, d.errorf(f, "duplicate field %s", name)
			}
			t, err := d.typ(f.Items[1])
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, Field{Name: name, Type: t})
		}
		return rec, nil
	default:
		return nil, d.errorf(node, "expected type, got %s", node)
	}
}

func (d *decoder) block(node *sexy.Node) ([]Stmt, error) {
	if node.Head() != "block" {
		return nil, d.errorf(node, "expected (block ...)")
	}
	return d.stmts(node.Items[1:])
}

func (d *decoder) stmts(nodes []*sexy.Node) ([]Stmt, error) {
	var stmts []Stmt
	for _, n := range nodes {
		s, err := d.stmt(n)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (d *decoder) varDecl(node *sexy.Node) (*VariableDeclaration, error) {
	if err := d.arity(node, 2, 3); err != nil {
		return nil, err
	}
	t, err := d.typ(node.Items[1])
	if err != nil {
		return nil, err
	}
	name, err := d.symbol(node.Items[2])
	if err != nil {
		return nil, err
	}
	s := &VariableDeclaration{StmtBase: StmtBase{Pos: d.pos(node)}, Type: t, Name: name}
	if len(node.Items) == 4 {
		if s.Init, err = d.expr(node.Items[3]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (d *decoder) stmt(node *sexy.Node) (Stmt, error) {
	base := StmtBase{Pos: d.pos(node)}

	switch node.Head() {
	case "decl":
		return d.varDecl(node)

	case "assign":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		lhs, err := d.expr(node.Items[1])
		if err != nil {
			return nil, err
		}
		lval, ok := lhs.(LVal)
		if !ok {
			return nil, d.errorf(node.Items[1], "%s is not assignable", node.Items[1].Head())
		}
		rhs, err := d.expr(node.Items[2])
		if err != nil {
			return nil, err
		}
		return &Assign{StmtBase: base, LHS: lval, RHS: rhs}, nil

	case "print", "expr":
		if err := d.arity(node, 1, 1); err != nil {
			return nil, err
		}
		e, err := d.expr(node.Items[1])
		if err != nil {
			return nil, err
		}
		if node.Head() == "print" {
			return &Print{StmtBase: base, Expr: e}, nil
		}
		return &ExprStmt{StmtBase: base, Expr: e}, nil

	case "if":
		if err := d.arity(node, 2, 3); err != nil {
			return nil, err
		}
		cond, err := d.expr(node.Items[1])
		if err != nil {
			return nil, err
		}
		then, err := d.block(node.Items[2])
		if err != nil {
			return nil, err
		}
		s := &If{StmtBase: base, Cond: cond, Then: then}
		if len(node.Items) == 4 {
			if s.Else, err = d.block(node.Items[3]); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "while":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		cond, err := d.expr(node.Items[1])
		if err != nil {
			return nil, err
		}
		body, err := d.block(node.Items[2])
		if err != nil {
			return nil, err
		}
		return &While{StmtBase: base, Cond: cond, Body: body}, nil

	case "for":
		if err := d.arity(node, 4, 4); err != nil {
			return nil, err
		}
		if node.Items[1].Head() != "decl" {
			return nil, d.errorf(node.Items[1], "expected (decl ...) in for initializer")
		}
		init, err := d.varDecl(node.Items[1])
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(node.Items[2])
		if err != nil {
			return nil, err
		}
		incr, err := d.stmt(node.Items[3])
		if err != nil {
			return nil, err
		}
		body, err := d.block(node.Items[4])
		if err != nil {
			return nil, err
		}
		return &For{StmtBase: base, Init: init, Cond: cond, Incr: incr, Body: body}, nil

	case "return":
		if err := d.arity(node, 0, 1); err != nil {
			return nil, err
		}
		s := &Return{StmtBase: base}
		if len(node.Items) == 2 {
			e, err := d.expr(node.Items[1])
			if err != nil {
				return nil, err
			}
			s.Expr = e
		}
		return s, nil

	default:
		return nil, d.errorf(node, "expected statement, got %s", node)
	}
}

func (d *decoder) exprs(nodes []*sexy.Node) ([]Expr, error) {
	var exprs []Expr
	for _, n := range nodes {
		e, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (d *decoder) literal(node *sexy.Node) (any, error) {
	switch node.Type {
	case sexy.NodeInteger:
		return node.Integer, nil
	case sexy.NodeString:
		return node.Text, nil
	case sexy.NodeSymbol:
		switch node.Text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, d.errorf(node, "expected literal, got %s", node)
}

func (d *decoder) expr(node *sexy.Node) (Expr, error) {
	head := node.Head()
	if head == "" || len(node.Items) < 2 {
		return nil, d.errorf(node, "expected typed expression, got %s", node)
	}
	t, err := d.typ(node.Items[1])
	if err != nil {
		return nil, err
	}
	attrs := Attributes{Type: t, Pos: d.pos(node)}
	operands := node.Items[2:]

	switch head {
	case "const":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		v, err := d.literal(operands[0])
		if err != nil {
			return nil, err
		}
		return &Constant{Attributes: attrs, Value: v}, nil

	case "var":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		name, err := d.symbol(operands[0])
		if err != nil {
			return nil, err
		}
		return &Variable{Attributes: attrs, Name: name}, nil

	case "binary":
		if err := d.arity(node, 4, 4); err != nil {
			return nil, err
		}
		op, err := d.symbol(operands[0])
		if err != nil {
			return nil, err
		}
		lhs, err := d.expr(operands[1])
		if err != nil {
			return nil, err
		}
		rhs, err := d.expr(operands[2])
		if err != nil {
			return nil, err
		}
		return &Binary{Attributes: attrs, Op: BinOp(op), LHS: lhs, RHS: rhs}, nil

	case "unary":
		if err := d.arity(node, 3, 3); err != nil {
			return nil, err
		}
		op, err := d.symbol(operands[0])
		if err != nil {
			return nil, err
		}
		operand, err := d.expr(operands[1])
		if err != nil {
			return nil, err
		}
		return &Unary{Attributes: attrs, Op: UnOp(op), Operand: operand}, nil

	case "cast":
		if err := d.arity(node, 2, 2); err != nil {
			return nil, err
		}
		operand, err := d.expr(operands[0])
		if err != nil {
			return nil, err
		}
		return &Cast{Attributes: attrs, Operand: operand}, nil

	case "invoke":
		if err := d.arity(node, 2, -1); err != nil {
			return nil, err
		}
		name, err := d.symbol(operands[0])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(operands[1:])
		if err != nil {
			return nil, err
		}
		return &Invoke{Attributes: attrs, Name: name, Args: args}, nil

	case "index":
		if err := d.arity(node, 3, 3); err != nil {
			return nil, err
		}
		src, err := d.expr(operands[0])
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(operands[1])
		if err != nil {
			return nil, err
		}
		return &IndexOf{Attributes: attrs, Source: src, Index: idx}, nil

	case "newlist":
		elems, err := d.exprs(operands)
		if err != nil {
			return nil, err
		}
		return &ListConstructor{Attributes: attrs, Elems: elems}, nil

	case "newrecord":
		rec := &RecordConstructor{Attributes: attrs}
		for _, f := range operands {
			if f.Type != sexy.NodeList || len(f.Items) != 2 {
				return nil, d.errorf(f, "expected (field value) initializer")
			}
			name, err := d.symbol(f.Items[0])
			if err != nil {
				return nil, err
			}
			v, err := d.expr(f.Items[1])
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, FieldInit{Name: name, Value: v})
		}
		return rec, nil

	case "field":
		if err := d.arity(node, 3, 3); err != nil {
			return nil, err
		}
		src, err := d.expr(operands[0])
		if err != nil {
			return nil, err
		}
		name, err := d.symbol(operands[1])
		if err != nil {
			return nil, err
		}
		return &RecordAccess{Attributes: attrs, Source: src, Field: name}, nil

	default:
		return nil, d.errorf(node, "expected expression, got %s", node)
	}
}
