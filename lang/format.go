package lang

import (
	"fmt"

	"github.com/strager/whilejvm/sexy"
)

// ToSExpr converts a program to its s-expression representation. The output
// decodes back to an equivalent program, minus positions.
func ToSExpr(p *Program) string {
	items := []*sexy.Node{sexy.NewSymbol("program")}
	for _, d := range p.Decls {
		items = append(items, declNode(d))
	}
	return sexy.NewList(items...).String()
}

// ExprString formats an expression for diagnostics.
func ExprString(e Expr) string {
	return exprNode(e).String()
}

// StmtString formats a statement for diagnostics.
func StmtString(s Stmt) string {
	return stmtNode(s).String()
}

func sym(s string) *sexy.Node { return sexy.NewSymbol(s) }

func typeNode(t Type) *sexy.Node {
	switch t := t.(type) {
	case *ListType:
		return sexy.NewList(sym("list"), typeNode(t.Elem))
	case *RecordType:
		items := []*sexy.Node{sym("record")}
		for _, f := range t.Fields {
			items = append(items, sexy.NewList(sym(f.Name), typeNode(f.Type)))
		}
		return sexy.NewList(items...)
	case nil:
		return sym("<nil>")
	default:
		return sym(t.String())
	}
}

func declNode(d Decl) *sexy.Node {
	switch d := d.(type) {
	case *FunDecl:
		var params []*sexy.Node
		for _, p := range d.Params {
			params = append(params, sexy.NewList(sym(p.Name), typeNode(p.Type)))
		}
		items := []*sexy.Node{sym("fun"), sym(d.Name), typeNode(d.Return), sexy.NewList(params...)}
		items = append(items, stmtNodes(d.Body)...)
		n := sexy.NewList(items...)
		if d.EntryPoint {
			n.WithMeta("entry", sym("true"))
		}
		return n
	case *TypeDecl:
		return sexy.NewList(sym("type"), sym(d.Name), typeNode(d.Type))
	default:
		return sym(fmt.Sprintf("<%T>", d))
	}
}

func stmtNodes(stmts []Stmt) []*sexy.Node {
	var nodes []*sexy.Node
	for _, s := range stmts {
		nodes = append(nodes, stmtNode(s))
	}
	return nodes
}

func blockNode(stmts []Stmt) *sexy.Node {
	return sexy.NewList(append([]*sexy.Node{sym("block")}, stmtNodes(stmts)...)...)
}

func stmtNode(s Stmt) *sexy.Node {
	switch s := s.(type) {
	case *VariableDeclaration:
		n := sexy.NewList(sym("decl"), typeNode(s.Type), sym(s.Name))
		if s.Init != nil {
			n.Items = append(n.Items, exprNode(s.Init))
		}
		return n
	case *Assign:
		return sexy.NewList(sym("assign"), exprNode(s.LHS), exprNode(s.RHS))
	case *Print:
		return sexy.NewList(sym("print"), exprNode(s.Expr))
	case *If:
		n := sexy.NewList(sym("if"), exprNode(s.Cond), blockNode(s.Then))
		if len(s.Else) > 0 {
			n.Items = append(n.Items, blockNode(s.Else))
		}
		return n
	case *While:
		return sexy.NewList(sym("while"), exprNode(s.Cond), blockNode(s.Body))
	case *For:
		return sexy.NewList(sym("for"), stmtNode(s.Init), exprNode(s.Cond), stmtNode(s.Incr), blockNode(s.Body))
	case *Return:
		if s.Expr == nil {
			return sexy.NewList(sym("return"))
		}
		return sexy.NewList(sym("return"), exprNode(s.Expr))
	case *ExprStmt:
		return sexy.NewList(sym("expr"), exprNode(s.Expr))
	default:
		return sym(fmt.Sprintf("<%T>", s))
	}
}

func literalNode(v any) *sexy.Node {
	switch v := v.(type) {
	case int64:
		return sexy.NewInteger(v)
	case string:
		return sexy.NewString(v)
	case bool:
		if v {
			return sym("true")
		}
		return sym("false")
	default:
		return sym(fmt.Sprintf("<%T>", v))
	}
}

func exprNode(e Expr) *sexy.Node {
	if e == nil {
		return sym("<nil>")
	}
	t := typeNode(TypeOf(e))
	switch e := e.(type) {
	case *Constant:
		return sexy.NewList(sym("const"), t, literalNode(e.Value))
	case *Variable:
		return sexy.NewList(sym("var"), t, sym(e.Name))
	case *Binary:
		return sexy.NewList(sym("binary"), t, sym(string(e.Op)), exprNode(e.LHS), exprNode(e.RHS))
	case *Unary:
		return sexy.NewList(sym("unary"), t, sym(string(e.Op)), exprNode(e.Operand))
	case *Cast:
		return sexy.NewList(sym("cast"), t, exprNode(e.Operand))
	case *Invoke:
		items := []*sexy.Node{sym("invoke"), t, sym(e.Name)}
		for _, a := range e.Args {
			items = append(items, exprNode(a))
		}
		return sexy.NewList(items...)
	case *IndexOf:
		return sexy.NewList(sym("index"), t, exprNode(e.Source), exprNode(e.Index))
	case *ListConstructor:
		items := []*sexy.Node{sym("newlist"), t}
		for _, el := range e.Elems {
			items = append(items, exprNode(el))
		}
		return sexy.NewList(items...)
	case *RecordConstructor:
		items := []*sexy.Node{sym("newrecord"), t}
		for _, f := range e.Fields {
			items = append(items, sexy.NewList(sym(f.Name), exprNode(f.Value)))
		}
		return sexy.NewList(items...)
	case *RecordAccess:
		return sexy.NewList(sym("field"), t, exprNode(e.Source), sym(e.Field))
	default:
		return sym(fmt.Sprintf("<%T>", e))
	}
}
