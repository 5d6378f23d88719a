// Package lang defines the typed While abstract syntax tree consumed by the
// code generator. Trees are produced by upstream stages (or decoded from
// their s-expression form) with every expression's static type resolved,
// and are never mutated afterwards.
package lang

import "fmt"

// Pos is a source position. The zero Pos means "unknown".
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Col == 0 {
		return fmt.Sprintf("%d", p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// BinOp is a binary operator.
type BinOp string

const (
	OpAnd    BinOp = "&&"
	OpOr     BinOp = "||"
	OpAdd    BinOp = "+"
	OpSub    BinOp = "-"
	OpMul    BinOp = "*"
	OpDiv    BinOp = "/"
	OpRem    BinOp = "%"
	OpEq     BinOp = "=="
	OpNe     BinOp = "!="
	OpLt     BinOp = "<"
	OpLe     BinOp = "<="
	OpGt     BinOp = ">"
	OpGe     BinOp = ">="
	OpAppend BinOp = "++"
)

// UnOp is a unary operator.
type UnOp string

const (
	OpNot    UnOp = "!"
	OpNeg    UnOp = "-"
	OpLength UnOp = "len"
)

// Attributes are the upstream-computed facts attached to every expression.
type Attributes struct {
	Type Type
	Pos  Pos
}

func (a *Attributes) Attrs() *Attributes { return a }

// Expr is an expression node: one of *Constant, *Variable, *Binary, *Unary,
// *Cast, *Invoke, *IndexOf, *ListConstructor, *RecordConstructor or
// *RecordAccess.
type Expr interface {
	Attrs() *Attributes
	isExpr()
}

// LVal is an expression that may appear on the left of an assignment.
type LVal interface {
	Expr
	isLVal()
}

// TypeOf returns the static type attribute of e.
func TypeOf(e Expr) Type {
	return e.Attrs().Type
}

// Constant is a literal. Value is a bool, an int64 or a string.
type Constant struct {
	Attributes
	Value any
}

type Variable struct {
	Attributes
	Name string
}

type Binary struct {
	Attributes
	Op  BinOp
	LHS Expr
	RHS Expr
}

type Unary struct {
	Attributes
	Op      UnOp
	Operand Expr
}

// Cast converts Operand to the node's own type.
type Cast struct {
	Attributes
	Operand Expr
}

type Invoke struct {
	Attributes
	Name string
	Args []Expr
}

type IndexOf struct {
	Attributes
	Source Expr
	Index  Expr
}

type ListConstructor struct {
	Attributes
	Elems []Expr
}

// FieldInit is one field of a record constructor, in source order.
type FieldInit struct {
	Name  string
	Value Expr
}

type RecordConstructor struct {
	Attributes
	Fields []FieldInit
}

// Field returns the initializer of the named field, or nil.
func (e *RecordConstructor) Field(name string) Expr {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

type RecordAccess struct {
	Attributes
	Source Expr
	Field  string
}

func (*Constant) isExpr()          {}
func (*Variable) isExpr()          {}
func (*Binary) isExpr()            {}
func (*Unary) isExpr()             {}
func (*Cast) isExpr()              {}
func (*Invoke) isExpr()            {}
func (*IndexOf) isExpr()           {}
func (*ListConstructor) isExpr()   {}
func (*RecordConstructor) isExpr() {}
func (*RecordAccess) isExpr()      {}

func (*Variable) isLVal()     {}
func (*IndexOf) isLVal()      {}
func (*RecordAccess) isLVal() {}

// Stmt is a statement node: one of *VariableDeclaration, *Assign, *Print,
// *If, *While, *For, *Return or *ExprStmt.
type Stmt interface {
	Position() Pos
	isStmt()
}

type StmtBase struct {
	Pos Pos
}

func (s *StmtBase) Position() Pos { return s.Pos }

// VariableDeclaration declares Name with Type. Init may be nil.
type VariableDeclaration struct {
	StmtBase
	Type Type
	Name string
	Init Expr
}

type Assign struct {
	StmtBase
	LHS LVal
	RHS Expr
}

type Print struct {
	StmtBase
	Expr Expr
}

type If struct {
	StmtBase
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type While struct {
	StmtBase
	Cond Expr
	Body []Stmt
}

type For struct {
	StmtBase
	Init *VariableDeclaration
	Cond Expr
	Incr Stmt
	Body []Stmt
}

// Return returns from the enclosing function. Expr is nil for a bare return.
type Return struct {
	StmtBase
	Expr Expr
}

// ExprStmt evaluates Expr, typically a call, and discards its value.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

func (*VariableDeclaration) isStmt() {}
func (*Assign) isStmt()              {}
func (*Print) isStmt()               {}
func (*If) isStmt()                  {}
func (*While) isStmt()               {}
func (*For) isStmt()                 {}
func (*Return) isStmt()              {}
func (*ExprStmt) isStmt()            {}

// Decl is a top-level declaration: *FunDecl or *TypeDecl.
type Decl interface {
	DeclName() string
	isDecl()
}

type Parameter struct {
	Name string
	Type Type
}

type FunDecl struct {
	Pos        Pos
	Name       string
	Params     []Parameter
	Return     Type
	Body       []Stmt
	EntryPoint bool
}

// TypeDecl declares Name as an alias of Type.
type TypeDecl struct {
	Pos  Pos
	Name string
	Type Type
}

func (d *FunDecl) DeclName() string  { return d.Name }
func (d *TypeDecl) DeclName() string { return d.Name }
func (*FunDecl) isDecl()             {}
func (*TypeDecl) isDecl()            {}

// Program is one compilation unit.
type Program struct {
	Decls []Decl
}

// Functions returns the function declarations in declaration order.
func (p *Program) Functions() []*FunDecl {
	var funs []*FunDecl
	for _, d := range p.Decls {
		if f, ok := d.(*FunDecl); ok {
			funs = append(funs, f)
		}
	}
	return funs
}

// Function returns the named function declaration, or nil.
func (p *Program) Function(name string) *FunDecl {
	for _, f := range p.Functions() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Aliases returns the type declarations keyed by name.
func (p *Program) Aliases() map[string]Type {
	aliases := make(map[string]Type)
	for _, d := range p.Decls {
		if t, ok := d.(*TypeDecl); ok {
			aliases[t.Name] = t.Type
		}
	}
	return aliases
}
