package interp

import (
	"github.com/pkg/errors"

	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/value"
)

func (f *frame) VisitConstant(e *lang.Constant) (value.Value, error) {
	switch v := e.Value.(type) {
	case bool:
		return value.Bool(v), nil
	case int64:
		return value.Int(int32(v)), nil
	case string:
		return value.Str(v), nil
	default:
		return nil, errors.Errorf("constant of Go type %T", v)
	}
}

// VisitVariable copies composite values out of the variable, so later
// mutation through the variable does not show through the copy.
func (f *frame) VisitVariable(e *lang.Variable) (value.Value, error) {
	v, err := f.get(e.Name)
	if err != nil {
		return nil, err
	}
	return value.Clone(v), nil
}

func (f *frame) VisitBinary(e *lang.Binary) (value.Value, error) {
	switch e.Op {
	case lang.OpAnd, lang.OpOr:
		lhs, err := f.evalBool(e.LHS)
		if err != nil {
			return nil, err
		}
		if lhs == (e.Op == lang.OpOr) {
			return value.Bool(lhs), nil
		}
		rhs, err := f.evalBool(e.RHS)
		return value.Bool(rhs), err
	case lang.OpEq, lang.OpNe:
		lhs, err := f.eval(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := f.eval(e.RHS)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Equal(lhs, rhs) == (e.Op == lang.OpEq)), nil
	case lang.OpAppend:
		lhs, err := f.eval(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := f.eval(e.RHS)
		if err != nil {
			return nil, err
		}
		return value.Append(lhs, rhs)
	}

	a, err := f.evalInt(e.LHS)
	if err != nil {
		return nil, err
	}
	b, err := f.evalInt(e.RHS)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case lang.OpAdd:
		return a + b, nil
	case lang.OpSub:
		return a - b, nil
	case lang.OpMul:
		return a * b, nil
	case lang.OpDiv:
		return value.Div(f.fun.Name, a, b)
	case lang.OpRem:
		return value.Rem(f.fun.Name, a, b)
	case lang.OpLt:
		return value.Bool(a < b), nil
	case lang.OpLe:
		return value.Bool(a <= b), nil
	case lang.OpGt:
		return value.Bool(a > b), nil
	case lang.OpGe:
		return value.Bool(a >= b), nil
	default:
		return nil, errors.Errorf("binary operator %q", e.Op)
	}
}

func (f *frame) VisitUnary(e *lang.Unary) (value.Value, error) {
	switch e.Op {
	case lang.OpNot:
		b, err := f.evalBool(e.Operand)
		return value.Bool(!b), err
	case lang.OpNeg:
		i, err := f.evalInt(e.Operand)
		return -i, err
	case lang.OpLength:
		v, err := f.eval(e.Operand)
		if err != nil {
			return nil, err
		}
		return value.Length(v)
	default:
		return nil, errors.Errorf("unary operator %q", e.Op)
	}
}

func (f *frame) VisitCast(e *lang.Cast) (value.Value, error) {
	v, err := f.eval(e.Operand)
	if err != nil {
		return nil, err
	}
	to, err := lang.Underlying(e.Type, f.in.aliases)
	if err != nil {
		return nil, err
	}
	switch to := to.(type) {
	case lang.StringType:
		return value.Str(value.Format(v)), nil
	case *lang.RecordType:
		r, ok := v.(*value.Record)
		if !ok {
			return nil, errors.Errorf("cast of %T to a record", v)
		}
		names := make([]string, len(to.Fields))
		for i, field := range to.Fields {
			names[i] = field.Name
		}
		return value.Project(r, names)
	default:
		return v, nil
	}
}

func (f *frame) VisitInvoke(e *lang.Invoke) (value.Value, error) {
	callee := f.in.prog.Function(e.Name)
	if callee == nil {
		return nil, errors.Errorf("%s: unbound function %s", f.fun.Name, e.Name)
	}
	args := make([]value.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := f.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return f.in.Call(callee, args)
}

func (f *frame) VisitIndexOf(e *lang.IndexOf) (value.Value, error) {
	src, err := f.eval(e.Source)
	if err != nil {
		return nil, err
	}
	return f.element(src, e.Index)
}

// element indexes an already evaluated list.
func (f *frame) element(src value.Value, index lang.Expr) (value.Value, error) {
	l, ok := src.(*value.List)
	if !ok {
		return nil, errors.Errorf("indexing %T", src)
	}
	i, err := f.evalInt(index)
	if err != nil {
		return nil, err
	}
	slot, err := value.Index(f.fun.Name, l, i)
	if err != nil {
		return nil, err
	}
	return l.Elems[slot], nil
}

func (f *frame) VisitListConstructor(e *lang.ListConstructor) (value.Value, error) {
	l := &value.List{Elems: make([]value.Value, 0, len(e.Elems))}
	for _, el := range e.Elems {
		v, err := f.eval(el)
		if err != nil {
			return nil, err
		}
		l.Elems = append(l.Elems, v)
	}
	return l, nil
}

// VisitRecordConstructor evaluates initializers in the field order of the
// record type, not the order they are written in.
func (f *frame) VisitRecordConstructor(e *lang.RecordConstructor) (value.Value, error) {
	t, err := f.record(e.Type)
	if err != nil {
		return nil, err
	}
	r := &value.Record{Fields: make([]value.Field, 0, len(t.Fields))}
	for _, field := range t.Fields {
		init := e.Field(field.Name)
		if init == nil {
			return nil, errors.Errorf("missing initializer for field %s", field.Name)
		}
		v, err := f.eval(init)
		if err != nil {
			return nil, err
		}
		r.Fields = append(r.Fields, value.Field{Name: field.Name, Value: v})
	}
	return r, nil
}

func (f *frame) VisitRecordAccess(e *lang.RecordAccess) (value.Value, error) {
	src, err := f.eval(e.Source)
	if err != nil {
		return nil, err
	}
	return field(src, e.Field)
}

func field(src value.Value, name string) (value.Value, error) {
	r, ok := src.(*value.Record)
	if !ok {
		return nil, errors.Errorf("field access on %T", src)
	}
	v, ok := r.Get(name)
	if !ok {
		return nil, errors.Errorf("record has no field %s", name)
	}
	return v, nil
}

// target evaluates the container an assignment writes into. Unlike eval it
// does not copy, so writes land in the variable's own value.
func (f *frame) target(e lang.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *lang.Variable:
		return f.get(e.Name)
	case *lang.IndexOf:
		src, err := f.target(e.Source)
		if err != nil {
			return nil, err
		}
		return f.element(src, e.Index)
	case *lang.RecordAccess:
		src, err := f.target(e.Source)
		if err != nil {
			return nil, err
		}
		return field(src, e.Field)
	default:
		return f.eval(e)
	}
}
