// Package langtest generates random well-typed While programs for property
// tests.
package langtest

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/strager/whilejvm/lang"
)

// Program generates a program whose entry point main runs a random statement
// list nested at most maxDepth deep. Every loop is a counted for loop, so
// generated programs always terminate. They may still fault at runtime, for
// example on division by zero or an out-of-range index.
//
// The program also declares side(x int) int, which prints x and returns it,
// so tests can observe evaluation order.
func Program(maxDepth int) *rapid.Generator[*lang.Program] {
	return rapid.Custom(func(t *rapid.T) *lang.Program {
		b := &builder{t: t}
		body := b.stmts(maxDepth)
		return &lang.Program{Decls: []lang.Decl{
			Side(),
			&lang.FunDecl{Name: "main", Return: lang.Void, Body: body, EntryPoint: true},
		}}
	})
}

// Side is the declaration of side(x int) int.
func Side() *lang.FunDecl {
	return &lang.FunDecl{
		Name:   "side",
		Params: []lang.Parameter{{Name: "x", Type: lang.Int}},
		Return: lang.Int,
		Body: []lang.Stmt{
			&lang.Print{Expr: Var(lang.Int, "x")},
			&lang.Return{Expr: Var(lang.Int, "x")},
		},
	}
}

func Int(v int32) *lang.Constant {
	return &lang.Constant{Attributes: lang.Attributes{Type: lang.Int}, Value: int64(v)}
}

func Bool(v bool) *lang.Constant {
	return &lang.Constant{Attributes: lang.Attributes{Type: lang.Bool}, Value: v}
}

func Var(t lang.Type, name string) *lang.Variable {
	return &lang.Variable{Attributes: lang.Attributes{Type: t}, Name: name}
}

func Binary(t lang.Type, op lang.BinOp, lhs, rhs lang.Expr) *lang.Binary {
	return &lang.Binary{Attributes: lang.Attributes{Type: t}, Op: op, LHS: lhs, RHS: rhs}
}

func Unary(t lang.Type, op lang.UnOp, operand lang.Expr) *lang.Unary {
	return &lang.Unary{Attributes: lang.Attributes{Type: t}, Op: op, Operand: operand}
}

func Call(t lang.Type, name string, args ...lang.Expr) *lang.Invoke {
	return &lang.Invoke{Attributes: lang.Attributes{Type: t}, Name: name, Args: args}
}

var intList = lang.ListOf(lang.Int)

type builder struct {
	t    *rapid.T
	next int

	ints   []string // assignable int variables in scope
	frozen []string // loop counters, readable but never assigned
	bools  []string
	lists  []string
}

func (b *builder) fresh(prefix string) string {
	b.next++
	return fmt.Sprintf("%s%d", prefix, b.next)
}

func (b *builder) draw(n int, label string) int {
	return rapid.IntRange(0, n-1).Draw(b.t, label)
}

// scoped runs f and then forgets every variable f declared.
func (b *builder) scoped(f func()) {
	ints, frozen, bools, lists := len(b.ints), len(b.frozen), len(b.bools), len(b.lists)
	f()
	b.ints, b.frozen, b.bools, b.lists = b.ints[:ints], b.frozen[:frozen], b.bools[:bools], b.lists[:lists]
}

func (b *builder) block(depth int) []lang.Stmt {
	var stmts []lang.Stmt
	b.scoped(func() { stmts = b.stmts(depth) })
	return stmts
}

func (b *builder) stmts(depth int) []lang.Stmt {
	n := rapid.IntRange(1, 4).Draw(b.t, "statements")
	stmts := make([]lang.Stmt, 0, n)
	for i := 0; i < n; i++ {
		stmts = append(stmts, b.stmt(depth))
	}
	return stmts
}

func (b *builder) stmt(depth int) lang.Stmt {
	kinds := []string{"decl-int", "decl-bool", "decl-list", "assign", "store", "print", "call"}
	if depth > 0 {
		kinds = append(kinds, "if", "for")
	}
	kind := rapid.SampledFrom(kinds).Draw(b.t, "statement")
	if kind == "assign" && len(b.ints) == 0 {
		kind = "decl-int"
	}
	if kind == "store" && len(b.lists) == 0 {
		kind = "decl-list"
	}

	switch kind {
	case "decl-int":
		init := b.intExpr(depth)
		name := b.fresh("i")
		b.ints = append(b.ints, name)
		return &lang.VariableDeclaration{Type: lang.Int, Name: name, Init: init}
	case "decl-bool":
		init := b.boolExpr(depth)
		name := b.fresh("b")
		b.bools = append(b.bools, name)
		return &lang.VariableDeclaration{Type: lang.Bool, Name: name, Init: init}
	case "decl-list":
		var elems []lang.Expr
		for i := rapid.IntRange(1, 3).Draw(b.t, "elements"); i > 0; i-- {
			elems = append(elems, b.intExpr(depth))
		}
		name := b.fresh("xs")
		b.lists = append(b.lists, name)
		init := &lang.ListConstructor{Attributes: lang.Attributes{Type: intList}, Elems: elems}
		return &lang.VariableDeclaration{Type: intList, Name: name, Init: init}
	case "assign":
		name := b.ints[b.draw(len(b.ints), "target")]
		return &lang.Assign{LHS: Var(lang.Int, name), RHS: b.intExpr(depth)}
	case "store":
		name := b.lists[b.draw(len(b.lists), "target")]
		index := &lang.IndexOf{
			Attributes: lang.Attributes{Type: lang.Int},
			Source:     Var(intList, name),
			Index:      Int(int32(b.draw(3, "index"))),
		}
		return &lang.Assign{LHS: index, RHS: b.intExpr(depth)}
	case "print":
		return &lang.Print{Expr: b.printable(depth)}
	case "call":
		return &lang.ExprStmt{Expr: Call(lang.Int, "side", b.intExpr(depth))}
	case "if":
		s := &lang.If{Cond: b.boolExpr(depth), Then: b.block(depth - 1)}
		if rapid.Bool().Draw(b.t, "else") {
			s.Else = b.block(depth - 1)
		}
		return s
	case "for":
		name := b.fresh("n")
		limit := int32(b.draw(4, "limit"))
		s := &lang.For{
			Init: &lang.VariableDeclaration{Type: lang.Int, Name: name, Init: Int(0)},
			Cond: Binary(lang.Bool, lang.OpLt, Var(lang.Int, name), Int(limit)),
			Incr: &lang.Assign{LHS: Var(lang.Int, name), RHS: Binary(lang.Int, lang.OpAdd, Var(lang.Int, name), Int(1))},
		}
		b.scoped(func() {
			b.frozen = append(b.frozen, name)
			s.Body = b.block(depth - 1)
		})
		return s
	default:
		panic("unreachable: " + kind)
	}
}

func (b *builder) printable(depth int) lang.Expr {
	switch rapid.SampledFrom([]string{"int", "bool", "string", "list"}).Draw(b.t, "printable") {
	case "bool":
		return b.boolExpr(depth)
	case "string":
		str := &lang.Cast{Attributes: lang.Attributes{Type: lang.String}, Operand: b.intExpr(depth)}
		suffix := &lang.Cast{Attributes: lang.Attributes{Type: lang.String}, Operand: b.boolExpr(depth)}
		return Binary(lang.String, lang.OpAppend, str, suffix)
	case "list":
		if len(b.lists) > 0 {
			return Var(intList, b.lists[b.draw(len(b.lists), "list")])
		}
	}
	return b.intExpr(depth)
}

func (b *builder) intExpr(depth int) lang.Expr {
	readable := append(append([]string(nil), b.ints...), b.frozen...)
	kinds := []string{"const"}
	if len(readable) > 0 {
		kinds = append(kinds, "var")
	}
	if depth > 0 {
		kinds = append(kinds, "arith", "neg", "call")
		if len(b.lists) > 0 {
			kinds = append(kinds, "len", "index")
		}
	}

	switch rapid.SampledFrom(kinds).Draw(b.t, "int expression") {
	case "var":
		return Var(lang.Int, readable[b.draw(len(readable), "variable")])
	case "arith":
		op := rapid.SampledFrom([]lang.BinOp{lang.OpAdd, lang.OpSub, lang.OpMul, lang.OpDiv, lang.OpRem}).Draw(b.t, "op")
		return Binary(lang.Int, op, b.intExpr(depth-1), b.intExpr(depth-1))
	case "neg":
		return Unary(lang.Int, lang.OpNeg, b.intExpr(depth-1))
	case "call":
		return Call(lang.Int, "side", b.intExpr(depth-1))
	case "len":
		return Unary(lang.Int, lang.OpLength, Var(intList, b.lists[b.draw(len(b.lists), "list")]))
	case "index":
		return &lang.IndexOf{
			Attributes: lang.Attributes{Type: lang.Int},
			Source:     Var(intList, b.lists[b.draw(len(b.lists), "list")]),
			Index:      b.intExpr(depth - 1),
		}
	default:
		return Int(rapid.Int32Range(-5, 5).Draw(b.t, "int"))
	}
}

func (b *builder) boolExpr(depth int) lang.Expr {
	kinds := []string{"const"}
	if len(b.bools) > 0 {
		kinds = append(kinds, "var")
	}
	if depth > 0 {
		kinds = append(kinds, "compare", "logic", "not", "equal")
	}

	switch rapid.SampledFrom(kinds).Draw(b.t, "bool expression") {
	case "var":
		return Var(lang.Bool, b.bools[b.draw(len(b.bools), "variable")])
	case "compare":
		op := rapid.SampledFrom([]lang.BinOp{lang.OpLt, lang.OpLe, lang.OpGt, lang.OpGe, lang.OpEq, lang.OpNe}).Draw(b.t, "op")
		return Binary(lang.Bool, op, b.intExpr(depth-1), b.intExpr(depth-1))
	case "logic":
		op := rapid.SampledFrom([]lang.BinOp{lang.OpAnd, lang.OpOr}).Draw(b.t, "op")
		return Binary(lang.Bool, op, b.boolExpr(depth-1), b.boolExpr(depth-1))
	case "not":
		return Unary(lang.Bool, lang.OpNot, b.boolExpr(depth-1))
	case "equal":
		op := rapid.SampledFrom([]lang.BinOp{lang.OpEq, lang.OpNe}).Draw(b.t, "op")
		return Binary(lang.Bool, op, b.boolExpr(depth-1), b.boolExpr(depth-1))
	default:
		return Bool(rapid.Bool().Draw(b.t, "bool"))
	}
}
