package interp

import (
	"github.com/pkg/errors"

	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/value"
)

// block runs stmts in a scope of their own, stopping after a return.
func (f *frame) block(stmts []lang.Stmt) error {
	f.enter()
	defer f.exit()
	for _, s := range stmts {
		if err := lang.VisitStmt(s, f); err != nil {
			return err
		}
		if f.returned {
			return nil
		}
	}
	return nil
}

// VisitVariableDeclaration evaluates the initializer before the new name is
// in scope. Without an initializer the variable stays unset until assigned.
func (f *frame) VisitVariableDeclaration(s *lang.VariableDeclaration) error {
	var v value.Value
	if s.Init != nil {
		var err error
		if v, err = f.eval(s.Init); err != nil {
			return err
		}
	}
	f.declare(s.Name, v)
	return nil
}

// VisitAssign evaluates the right-hand side before the target.
func (f *frame) VisitAssign(s *lang.Assign) error {
	rhs, err := f.eval(s.RHS)
	if err != nil {
		return err
	}

	switch lhs := s.LHS.(type) {
	case *lang.Variable:
		b, err := f.lookup(lhs.Name)
		if err != nil {
			return err
		}
		b.v = rhs
	case *lang.IndexOf:
		src, err := f.target(lhs.Source)
		if err != nil {
			return err
		}
		l, ok := src.(*value.List)
		if !ok {
			return errors.Errorf("element assignment into %T", src)
		}
		i, err := f.evalInt(lhs.Index)
		if err != nil {
			return err
		}
		slot, err := value.Index(f.fun.Name, l, i)
		if err != nil {
			return err
		}
		l.Elems[slot] = rhs
	case *lang.RecordAccess:
		src, err := f.target(lhs.Source)
		if err != nil {
			return err
		}
		r, ok := src.(*value.Record)
		if !ok || !r.Set(lhs.Field, rhs) {
			return errors.Errorf("no field %s to assign in %T", lhs.Field, src)
		}
	default:
		return errors.Errorf("assignment to %T", s.LHS)
	}
	return nil
}

func (f *frame) VisitPrint(s *lang.Print) error {
	v, err := f.eval(s.Expr)
	if err != nil {
		return err
	}
	return f.in.print(v)
}

func (f *frame) VisitIf(s *lang.If) error {
	cond, err := f.evalBool(s.Cond)
	if err != nil {
		return err
	}
	if cond {
		return f.block(s.Then)
	}
	return f.block(s.Else)
}

func (f *frame) VisitWhile(s *lang.While) error {
	return f.loop(s.Cond, s.Body, nil)
}

func (f *frame) VisitFor(s *lang.For) error {
	f.enter()
	defer f.exit()
	if err := f.VisitVariableDeclaration(s.Init); err != nil {
		return err
	}
	return f.loop(s.Cond, s.Body, s.Incr)
}

func (f *frame) loop(cond lang.Expr, body []lang.Stmt, incr lang.Stmt) error {
	for {
		ok, err := f.evalBool(cond)
		if err != nil || !ok {
			return err
		}
		if err := f.block(body); err != nil || f.returned {
			return err
		}
		if incr != nil {
			if err := lang.VisitStmt(incr, f); err != nil {
				return err
			}
		}
	}
}

func (f *frame) VisitReturn(s *lang.Return) error {
	if s.Expr != nil {
		v, err := f.eval(s.Expr)
		if err != nil {
			return err
		}
		f.result = v
	}
	f.returned = true
	return nil
}

func (f *frame) VisitExprStmt(s *lang.ExprStmt) error {
	_, err := f.eval(s.Expr)
	return err
}
