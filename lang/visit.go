package lang

import "fmt"

// ExprVisitor has one method per expression variant. Adding a variant adds a
// method here, so every visitor stops compiling until it handles it.
type ExprVisitor[R any] interface {
	VisitConstant(*Constant) (R, error)
	VisitVariable(*Variable) (R, error)
	VisitBinary(*Binary) (R, error)
	VisitUnary(*Unary) (R, error)
	VisitCast(*Cast) (R, error)
	VisitInvoke(*Invoke) (R, error)
	VisitIndexOf(*IndexOf) (R, error)
	VisitListConstructor(*ListConstructor) (R, error)
	VisitRecordConstructor(*RecordConstructor) (R, error)
	VisitRecordAccess(*RecordAccess) (R, error)
}

// VisitExpr dispatches e to the matching method of v.
func VisitExpr[R any](e Expr, v ExprVisitor[R]) (R, error) {
	switch e := e.(type) {
	case *Constant:
		return v.VisitConstant(e)
	case *Variable:
		return v.VisitVariable(e)
	case *Binary:
		return v.VisitBinary(e)
	case *Unary:
		return v.VisitUnary(e)
	case *Cast:
		return v.VisitCast(e)
	case *Invoke:
		return v.VisitInvoke(e)
	case *IndexOf:
		return v.VisitIndexOf(e)
	case *ListConstructor:
		return v.VisitListConstructor(e)
	case *RecordConstructor:
		return v.VisitRecordConstructor(e)
	case *RecordAccess:
		return v.VisitRecordAccess(e)
	default:
		var zero R
		return zero, fmt.Errorf("lang: unknown expression %T", e)
	}
}

// StmtVisitor has one method per statement variant.
type StmtVisitor interface {
	VisitVariableDeclaration(*VariableDeclaration) error
	VisitAssign(*Assign) error
	VisitPrint(*Print) error
	VisitIf(*If) error
	VisitWhile(*While) error
	VisitFor(*For) error
	VisitReturn(*Return) error
	VisitExprStmt(*ExprStmt) error
}

// VisitStmt dispatches s to the matching method of v.
func VisitStmt(s Stmt, v StmtVisitor) error {
	switch s := s.(type) {
	case *VariableDeclaration:
		return v.VisitVariableDeclaration(s)
	case *Assign:
		return v.VisitAssign(s)
	case *Print:
		return v.VisitPrint(s)
	case *If:
		return v.VisitIf(s)
	case *While:
		return v.VisitWhile(s)
	case *For:
		return v.VisitFor(s)
	case *Return:
		return v.VisitReturn(s)
	case *ExprStmt:
		return v.VisitExprStmt(s)
	default:
		return fmt.Errorf("lang: unknown statement %T", s)
	}
}

// Terminates reports whether a statement sequence ends in a return on every
// path. Only the last statement is considered.
func Terminates(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch s := stmts[len(stmts)-1].(type) {
	case *Return:
		return true
	case *If:
		return Terminates(s.Then) && Terminates(s.Else)
	default:
		return false
	}
}
