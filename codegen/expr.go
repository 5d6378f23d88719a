package codegen

import (
	"fmt"
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

var arithOps = map[lang.BinOp]jvm.Op{
	lang.OpAdd: jvm.OpIadd,
	lang.OpSub: jvm.OpIsub,
	lang.OpMul: jvm.OpImul,
	lang.OpDiv: jvm.OpIdiv,
	lang.OpRem: jvm.OpIrem,
}

var compareConds = map[lang.BinOp]jvm.Cond{
	lang.OpEq: jvm.CondEq,
	lang.OpNe: jvm.CondNe,
	lang.OpLt: jvm.CondLt,
	lang.OpLe: jvm.CondLe,
	lang.OpGt: jvm.CondGt,
	lang.OpGe: jvm.CondGe,
}

// lowerExpr emits code leaving the value of e on the stack and returns its
// machine type. A call to a void function leaves nothing and returns Void.
func (l *funcLowerer) lowerExpr(e lang.Expr) (jvm.Type, error) {
	return lang.VisitExpr[jvm.Type](e, l)
}

// value is lowerExpr for contexts that need exactly one value.
func (l *funcLowerer) value(e lang.Expr) (jvm.Type, error) {
	t, err := l.lowerExpr(e)
	if err != nil {
		return jvm.Type{}, err
	}
	if t.Kind == jvm.KindVoid {
		return jvm.Type{}, &UnsupportedConstructError{What: "use of a void value", Pos: e.Attrs().Pos}
	}
	return t, nil
}

// valueOf lowers e and checks it has type want.
func (l *funcLowerer) valueOf(e lang.Expr, want jvm.Type, context string) error {
	got, err := l.value(e)
	if err != nil {
		return err
	}
	return expect(context, want, got, e.Attrs().Pos)
}

func expect(context string, want, got jvm.Type, pos lang.Pos) error {
	if !want.Equal(got) {
		return &TypeMismatchError{Context: context, Want: want, Got: got, Pos: pos}
	}
	return nil
}

// typeOf maps the type attribute of e.
func (l *funcLowerer) typeOf(e lang.Expr) (jvm.Type, error) {
	return l.env.Types.Map(lang.TypeOf(e))
}

// result checks that the type produced by lowering agrees with the node's
// own type attribute.
func (l *funcLowerer) result(e lang.Expr, got jvm.Type) (jvm.Type, error) {
	want, err := l.typeOf(e)
	if err != nil {
		return jvm.Type{}, err
	}
	if err := expect(fmt.Sprintf("%T", e), want, got, e.Attrs().Pos); err != nil {
		return jvm.Type{}, err
	}
	return got, nil
}

func (l *funcLowerer) lookup(name string, pos lang.Pos) (Symbol, error) {
	sym, err := l.syms.Lookup(name)
	if err != nil {
		return Symbol{}, &UnboundVariableError{Name: name, Pos: pos}
	}
	return sym, nil
}

func (l *funcLowerer) VisitConstant(e *lang.Constant) (jvm.Type, error) {
	var t jvm.Type
	switch v := e.Value.(type) {
	case bool:
		t = jvm.Boolean
		l.emit(jvm.Ldc(t, v))
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return jvm.Type{}, &UnsupportedConstructError{What: fmt.Sprintf("integer constant %d does not fit in 32 bits", v), Pos: e.Pos}
		}
		t = jvm.Int
		l.emit(jvm.Ldc(t, int32(v)))
	case string:
		t = jvm.String
		l.emit(jvm.Ldc(t, v))
	default:
		return jvm.Type{}, &UnsupportedConstructError{What: fmt.Sprintf("constant of Go type %T", v), Pos: e.Pos}
	}
	return l.result(e, t)
}

// VisitVariable loads a variable. Composite values are cloned so the copy
// on the stack is not aliased by the variable.
func (l *funcLowerer) VisitVariable(e *lang.Variable) (jvm.Type, error) {
	sym, err := l.lookup(e.Name, e.Pos)
	if err != nil {
		return jvm.Type{}, err
	}
	l.emit(jvm.Load(sym.Slot, sym.Type))
	if sym.Type.IsComposite() {
		l.emit(jvm.Clone(sym.Type))
	}
	return l.result(e, sym.Type)
}

func (l *funcLowerer) VisitBinary(e *lang.Binary) (jvm.Type, error) {
	switch e.Op {
	case lang.OpAnd, lang.OpOr:
		return l.shortCircuit(e)
	case lang.OpAdd, lang.OpSub, lang.OpMul, lang.OpDiv, lang.OpRem:
		if err := l.valueOf(e.LHS, jvm.Int, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		if err := l.valueOf(e.RHS, jvm.Int, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		l.emit(jvm.Arith(arithOps[e.Op], jvm.Int))
		return l.result(e, jvm.Int)
	case lang.OpLt, lang.OpLe, lang.OpGt, lang.OpGe:
		if err := l.valueOf(e.LHS, jvm.Int, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		if err := l.valueOf(e.RHS, jvm.Int, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		l.materialize(compareConds[e.Op])
		return l.result(e, jvm.Boolean)
	case lang.OpEq, lang.OpNe:
		lhs, err := l.value(e.LHS)
		if err != nil {
			return jvm.Type{}, err
		}
		if err := l.valueOf(e.RHS, lhs, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		if !lhs.IsReference() {
			l.materialize(compareConds[e.Op])
			return l.result(e, jvm.Boolean)
		}
		l.emit(jvm.Equals())
		if e.Op == lang.OpNe {
			l.not()
		}
		return l.result(e, jvm.Boolean)
	case lang.OpAppend:
		lhs, err := l.value(e.LHS)
		if err != nil {
			return jvm.Type{}, err
		}
		if lhs.Kind != jvm.KindString && lhs.Kind != jvm.KindList {
			return jvm.Type{}, &UnsupportedConstructError{What: "append on " + lhs.String(), Pos: e.Pos}
		}
		if err := l.valueOf(e.RHS, lhs, string(e.Op)); err != nil {
			return jvm.Type{}, err
		}
		l.emit(jvm.Append(lhs))
		return l.result(e, lhs)
	default:
		return jvm.Type{}, &UnsupportedConstructError{What: fmt.Sprintf("binary operator %q", e.Op), Pos: e.Pos}
	}
}

// materialize turns an int comparison of the top two stack values into a
// boolean.
func (l *funcLowerer) materialize(cond jvm.Cond) {
	isTrue, end := l.labels.New(), l.labels.New()
	l.emit(
		jvm.IfIcmp(cond, isTrue),
		jvm.Ldc(jvm.Boolean, false),
		jvm.Goto(end),
		jvm.Mark(isTrue),
		jvm.Ldc(jvm.Boolean, true),
		jvm.Mark(end),
	)
}

func (l *funcLowerer) not() {
	l.emit(jvm.Ldc(jvm.Int, int32(1)), jvm.Arith(jvm.OpIxor, jvm.Boolean))
}

// shortCircuit skips the right operand of && when the left is false and of
// || when the left is true.
func (l *funcLowerer) shortCircuit(e *lang.Binary) (jvm.Type, error) {
	if err := l.valueOf(e.LHS, jvm.Boolean, string(e.Op)); err != nil {
		return jvm.Type{}, err
	}
	skip, end := l.labels.New(), l.labels.New()
	if e.Op == lang.OpAnd {
		l.emit(jvm.Ifeq(skip))
	} else {
		l.emit(jvm.Ifne(skip))
	}
	if err := l.valueOf(e.RHS, jvm.Boolean, string(e.Op)); err != nil {
		return jvm.Type{}, err
	}
	l.emit(
		jvm.Goto(end),
		jvm.Mark(skip),
		jvm.Ldc(jvm.Boolean, e.Op == lang.OpOr),
		jvm.Mark(end),
	)
	return l.result(e, jvm.Boolean)
}

func (l *funcLowerer) VisitUnary(e *lang.Unary) (jvm.Type, error) {
	switch e.Op {
	case lang.OpNot:
		if err := l.valueOf(e.Operand, jvm.Boolean, "!"); err != nil {
			return jvm.Type{}, err
		}
		l.not()
		return l.result(e, jvm.Boolean)
	case lang.OpNeg:
		if err := l.valueOf(e.Operand, jvm.Int, "-"); err != nil {
			return jvm.Type{}, err
		}
		l.emit(jvm.Arith(jvm.OpIneg, jvm.Int))
		return l.result(e, jvm.Int)
	case lang.OpLength:
		t, err := l.value(e.Operand)
		if err != nil {
			return jvm.Type{}, err
		}
		if t.Kind != jvm.KindList && t.Kind != jvm.KindString {
			return jvm.Type{}, &UnsupportedConstructError{What: "length of " + t.String(), Pos: e.Pos}
		}
		l.emit(jvm.Length())
		return l.result(e, jvm.Int)
	default:
		return jvm.Type{}, &UnsupportedConstructError{What: fmt.Sprintf("unary operator %q", e.Op), Pos: e.Pos}
	}
}

func (l *funcLowerer) VisitInvoke(e *lang.Invoke) (jvm.Type, error) {
	callee, ok := l.env.Functions[e.Name]
	if !ok {
		return jvm.Type{}, &UnboundFunctionError{Name: e.Name, Pos: e.Pos}
	}
	if callee.Static {
		return jvm.Type{}, &UnsupportedConstructError{What: "call to entry point " + e.Name, Pos: e.Pos}
	}
	if len(e.Args) != len(callee.Params) {
		return jvm.Type{}, &UnsupportedConstructError{
			What: fmt.Sprintf("call to %s with %d arguments, want %d", e.Name, len(e.Args), len(callee.Params)),
			Pos:  e.Pos,
		}
	}

	// The entry point is static and has no receiver of its own to pass on.
	if l.sig.Static {
		l.emit(jvm.New(l.env.Receiver()))
	} else {
		l.emit(jvm.Load(0, l.env.Receiver()))
	}
	for i, arg := range e.Args {
		if err := l.valueOf(arg, callee.Params[i], "argument of "+e.Name); err != nil {
			return jvm.Type{}, err
		}
	}
	l.emit(jvm.InvokeVirtual(callee))
	return l.result(e, callee.Return)
}

// elemOf checks that a lowered collection is a list.
func elemOf(src jvm.Type, pos lang.Pos) (jvm.Type, error) {
	if src.Kind != jvm.KindList {
		return jvm.Type{}, &UnsupportedConstructError{What: "indexing " + src.String(), Pos: pos}
	}
	return *src.Elem, nil
}

// fieldOf checks that a lowered value is a record with the named field.
func fieldOf(src jvm.Type, name string, pos lang.Pos) (jvm.RecordField, error) {
	if src.Kind != jvm.KindRecord {
		return jvm.RecordField{}, &UnsupportedConstructError{What: "field access on " + src.String(), Pos: pos}
	}
	f, ok := src.Field(name)
	if !ok {
		return jvm.RecordField{}, &UnsupportedConstructError{What: fmt.Sprintf("%s has no field %s", src, name), Pos: pos}
	}
	return f, nil
}

func (l *funcLowerer) VisitIndexOf(e *lang.IndexOf) (jvm.Type, error) {
	src, err := l.value(e.Source)
	if err != nil {
		return jvm.Type{}, err
	}
	return l.finishIndex(e, src)
}

func (l *funcLowerer) finishIndex(e *lang.IndexOf, src jvm.Type) (jvm.Type, error) {
	elem, err := elemOf(src, e.Pos)
	if err != nil {
		return jvm.Type{}, err
	}
	if err := l.valueOf(e.Index, jvm.Int, "index"); err != nil {
		return jvm.Type{}, err
	}
	l.emit(jvm.ListLoad(elem))
	return l.result(e, elem)
}

func (l *funcLowerer) VisitListConstructor(e *lang.ListConstructor) (jvm.Type, error) {
	t, err := l.typeOf(e)
	if err != nil {
		return jvm.Type{}, err
	}
	if t.Kind != jvm.KindList {
		return jvm.Type{}, &UnsupportedConstructError{What: "list constructor of type " + t.String(), Pos: e.Pos}
	}
	elem := *t.Elem
	for _, el := range e.Elems {
		if err := l.valueOf(el, elem, "list element"); err != nil {
			return jvm.Type{}, err
		}
	}
	l.emit(jvm.NewList(elem, len(e.Elems)))
	return t, nil
}

// VisitRecordConstructor evaluates field initializers in layout order, which
// is the declaration order of the record type.
func (l *funcLowerer) VisitRecordConstructor(e *lang.RecordConstructor) (jvm.Type, error) {
	t, err := l.typeOf(e)
	if err != nil {
		return jvm.Type{}, err
	}
	if t.Kind != jvm.KindRecord {
		return jvm.Type{}, &UnsupportedConstructError{What: "record constructor of type " + t.String(), Pos: e.Pos}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, f := range e.Fields {
		if _, ok := t.Field(f.Name); !ok {
			return jvm.Type{}, &UnsupportedConstructError{What: fmt.Sprintf("%s has no field %s", t, f.Name), Pos: e.Pos}
		}
		if !seen.Add(f.Name) {
			return jvm.Type{}, &UnsupportedConstructError{What: "field " + f.Name + " initialized twice", Pos: e.Pos}
		}
	}

	for _, f := range t.Fields {
		v := e.Field(f.Name)
		if v == nil {
			return jvm.Type{}, &UnsupportedConstructError{What: "missing initializer for field " + f.Name, Pos: e.Pos}
		}
		if err := l.valueOf(v, f.Type, "field "+f.Name); err != nil {
			return jvm.Type{}, err
		}
	}
	l.emit(jvm.NewRecord(t))
	return t, nil
}

func (l *funcLowerer) VisitRecordAccess(e *lang.RecordAccess) (jvm.Type, error) {
	src, err := l.value(e.Source)
	if err != nil {
		return jvm.Type{}, err
	}
	return l.finishAccess(e, src)
}

func (l *funcLowerer) finishAccess(e *lang.RecordAccess, src jvm.Type) (jvm.Type, error) {
	f, err := fieldOf(src, e.Field, e.Pos)
	if err != nil {
		return jvm.Type{}, err
	}
	l.emit(jvm.GetField(f))
	return l.result(e, f.Type)
}

// lowerTarget loads the container an assignment writes into. Unlike rvalue
// loads it does not clone, so the store lands in the variable's own value.
func (l *funcLowerer) lowerTarget(e lang.Expr) (jvm.Type, error) {
	switch e := e.(type) {
	case *lang.Variable:
		sym, err := l.lookup(e.Name, e.Pos)
		if err != nil {
			return jvm.Type{}, err
		}
		l.emit(jvm.Load(sym.Slot, sym.Type))
		return l.result(e, sym.Type)
	case *lang.IndexOf:
		src, err := l.lowerTarget(e.Source)
		if err != nil {
			return jvm.Type{}, err
		}
		return l.finishIndex(e, src)
	case *lang.RecordAccess:
		src, err := l.lowerTarget(e.Source)
		if err != nil {
			return jvm.Type{}, err
		}
		return l.finishAccess(e, src)
	default:
		return l.value(e)
	}
}
