package codegen

import (
	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

// Every statement leaves the operand stack as it found it.

func (l *funcLowerer) lowerStmt(s lang.Stmt) error {
	return lang.VisitStmt(s, l)
}

// lowerBlock lowers stmts in a scope of their own.
func (l *funcLowerer) lowerBlock(stmts []lang.Stmt) error {
	l.syms.EnterScope()
	defer l.syms.ExitScope()
	for _, s := range stmts {
		if err := l.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// VisitVariableDeclaration lowers the initializer before declaring the name,
// so the initializer still sees any outer binding it shadows.
func (l *funcLowerer) VisitVariableDeclaration(s *lang.VariableDeclaration) error {
	t, err := l.env.Types.MapValue(s.Type)
	if err != nil {
		return err
	}
	if s.Init != nil {
		if err := l.valueOf(s.Init, t, "initializer of "+s.Name); err != nil {
			return err
		}
	}
	sym, err := l.syms.Declare(s.Name, t)
	if err != nil {
		return err
	}
	if s.Init != nil {
		l.emit(jvm.Store(sym.Slot, sym.Type))
	} else {
		// A loop may rerun the declaration with an old value in the slot.
		l.emit(jvm.Clear(sym.Slot))
	}
	return nil
}

// VisitAssign evaluates the right-hand side first. Element and field stores
// then push the container and, for lists, the index.
func (l *funcLowerer) VisitAssign(s *lang.Assign) error {
	rhs, err := l.value(s.RHS)
	if err != nil {
		return err
	}

	switch lhs := s.LHS.(type) {
	case *lang.Variable:
		sym, err := l.lookup(lhs.Name, lhs.Pos)
		if err != nil {
			return err
		}
		if err := expect("assignment to "+lhs.Name, sym.Type, rhs, s.Pos); err != nil {
			return err
		}
		l.emit(jvm.Store(sym.Slot, sym.Type))
	case *lang.IndexOf:
		src, err := l.lowerTarget(lhs.Source)
		if err != nil {
			return err
		}
		elem, err := elemOf(src, lhs.Pos)
		if err != nil {
			return err
		}
		if err := l.valueOf(lhs.Index, jvm.Int, "index"); err != nil {
			return err
		}
		if err := expect("element assignment", elem, rhs, s.Pos); err != nil {
			return err
		}
		l.emit(jvm.ListStore(elem))
	case *lang.RecordAccess:
		src, err := l.lowerTarget(lhs.Source)
		if err != nil {
			return err
		}
		f, err := fieldOf(src, lhs.Field, lhs.Pos)
		if err != nil {
			return err
		}
		if err := expect("assignment to field "+f.Name, f.Type, rhs, s.Pos); err != nil {
			return err
		}
		l.emit(jvm.PutField(f))
	default:
		return &UnsupportedConstructError{What: "assignment target " + lang.ExprString(s.LHS), Pos: s.Pos}
	}
	return nil
}

func (l *funcLowerer) VisitPrint(s *lang.Print) error {
	t, err := l.lowerExpr(s.Expr)
	if err != nil {
		return err
	}
	if t.Kind == jvm.KindVoid {
		return &UnsupportedConstructError{What: "print of a void value", Pos: s.Pos}
	}
	l.emit(jvm.Print(t))
	return nil
}

func (l *funcLowerer) VisitReturn(s *lang.Return) error {
	want := l.sig.Return
	if s.Expr == nil {
		if err := expect("return", want, jvm.Void, s.Pos); err != nil {
			return err
		}
		l.emit(jvm.Return(jvm.Void))
		return nil
	}
	if want.Kind == jvm.KindVoid {
		return &UnsupportedConstructError{What: "return with a value from void function " + l.decl.Name, Pos: s.Pos}
	}
	if err := l.valueOf(s.Expr, want, "return"); err != nil {
		return err
	}
	l.emit(jvm.Return(want))
	return nil
}

func (l *funcLowerer) VisitExprStmt(s *lang.ExprStmt) error {
	t, err := l.lowerExpr(s.Expr)
	if err != nil {
		return err
	}
	if t.Width() > 0 {
		l.emit(jvm.Pop(t))
	}
	return nil
}

// VisitIf emits
//
//	cond; ifeq ELSE; then; goto END; ELSE: else; END:
//
// leaving out the goto when the then-branch always returns.
func (l *funcLowerer) VisitIf(s *lang.If) error {
	if err := l.valueOf(s.Cond, jvm.Boolean, "if condition"); err != nil {
		return err
	}
	elseLabel, end := l.labels.New(), l.labels.New()
	l.emit(jvm.Ifeq(elseLabel))
	if err := l.lowerBlock(s.Then); err != nil {
		return err
	}
	if !lang.Terminates(s.Then) {
		l.emit(jvm.Goto(end))
	}
	l.emit(jvm.Mark(elseLabel))
	if err := l.lowerBlock(s.Else); err != nil {
		return err
	}
	l.emit(jvm.Mark(end))
	return nil
}

// VisitWhile emits
//
//	LOOP: cond; ifeq END; body; goto LOOP; END:
func (l *funcLowerer) VisitWhile(s *lang.While) error {
	return l.loop(s.Cond, s.Body, nil)
}

// VisitFor lowers like a while loop whose body is followed by the increment.
// The loop variable lives in a scope of its own around the whole loop.
func (l *funcLowerer) VisitFor(s *lang.For) error {
	l.syms.EnterScope()
	defer l.syms.ExitScope()
	if err := l.VisitVariableDeclaration(s.Init); err != nil {
		return err
	}
	return l.loop(s.Cond, s.Body, s.Incr)
}

// loop lowers the body in its own scope; incr is lowered outside it so it
// cannot see names the body declares.
func (l *funcLowerer) loop(cond lang.Expr, body []lang.Stmt, incr lang.Stmt) error {
	top, end := l.labels.New(), l.labels.New()
	l.emit(jvm.Mark(top))
	if err := l.valueOf(cond, jvm.Boolean, "loop condition"); err != nil {
		return err
	}
	l.emit(jvm.Ifeq(end))
	if err := l.lowerBlock(body); err != nil {
		return err
	}
	if incr != nil {
		if err := l.lowerStmt(incr); err != nil {
			return err
		}
	}
	l.emit(jvm.Goto(top), jvm.Mark(end))
	return nil
}
