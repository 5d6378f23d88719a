// Package interp is a tree-walking interpreter for typed While programs. It
// defines the observable behavior that compiled code must reproduce: the
// printed output and the kind of runtime fault, if any.
package interp

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/logging"
	"github.com/strager/whilejvm/value"
)

// Interpreter runs one program. It is not safe for concurrent use.
type Interpreter struct {
	prog    *lang.Program
	aliases map[string]lang.Type
	out     io.Writer
	depth   int
}

func New(prog *lang.Program, out io.Writer) *Interpreter {
	return &Interpreter{prog: prog, aliases: prog.Aliases(), out: out}
}

// Run executes the entry point of prog, writing printed values to out.
func Run(prog *lang.Program, args []string, out io.Writer) error {
	return New(prog, out).Run(args)
}

// Run calls the entry point. Its declared parameters start at their zero
// values; args is accepted for symmetry with the VM but is not visible to
// While code.
func (in *Interpreter) Run(args []string) error {
	var entry *lang.FunDecl
	for _, f := range in.prog.Functions() {
		if f.EntryPoint {
			entry = f
			break
		}
	}
	if entry == nil {
		return errors.New("program has no entry point")
	}
	logging.V(5).Infof("interpreting %s with %d arguments", entry.Name, len(args))

	params := make([]value.Value, len(entry.Params))
	for i, p := range entry.Params {
		v, err := in.Zero(p.Type)
		if err != nil {
			return errors.Wrapf(err, "parameter %s of %s", p.Name, entry.Name)
		}
		params[i] = v
	}
	_, err := in.Call(entry, params)
	return err
}

// Zero is the value an entry point parameter of type t starts with.
func (in *Interpreter) Zero(t lang.Type) (value.Value, error) {
	t, err := lang.Underlying(t, in.aliases)
	if err != nil {
		return nil, err
	}
	switch t := t.(type) {
	case lang.IntType:
		return value.Int(0), nil
	case lang.BoolType:
		return value.Bool(false), nil
	case lang.StringType:
		return value.Str(""), nil
	case *lang.ListType:
		return &value.List{}, nil
	case *lang.RecordType:
		r := &value.Record{}
		for _, f := range t.Fields {
			v, err := in.Zero(f.Type)
			if err != nil {
				return nil, err
			}
			r.Fields = append(r.Fields, value.Field{Name: f.Name, Value: v})
		}
		return r, nil
	default:
		return nil, errors.Errorf("no zero value for %s", t)
	}
}

// Call runs a function with already evaluated arguments.
func (in *Interpreter) Call(fun *lang.FunDecl, args []value.Value) (value.Value, error) {
	if in.depth >= value.MaxCallDepth {
		return nil, value.Faultf(value.FaultCallDepth, fun.Name, "depth %d", in.depth)
	}
	if len(args) != len(fun.Params) {
		return nil, errors.Errorf("%s takes %d arguments, got %d", fun.Name, len(fun.Params), len(args))
	}
	in.depth++
	defer func() { in.depth-- }()
	logging.V(7).Infof("call %s at depth %d", fun.Name, in.depth)

	f := &frame{in: in, fun: fun}
	f.enter()
	for i, p := range fun.Params {
		f.declare(p.Name, args[i])
	}
	if err := f.block(fun.Body); err != nil {
		return nil, err
	}
	if f.returned {
		return f.result, nil
	}
	if _, void := fun.Return.(lang.VoidType); !void {
		return nil, &value.Fault{Kind: value.FaultMissingReturn, Function: fun.Name}
	}
	return nil, nil
}

func (in *Interpreter) print(v value.Value) error {
	if _, err := fmt.Fprintln(in.out, value.Format(v)); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

// binding is a variable. v is nil until the variable is first assigned.
type binding struct {
	v value.Value
}

// frame is one function activation.
type frame struct {
	in     *Interpreter
	fun    *lang.FunDecl
	scopes []map[string]*binding

	returned bool
	result   value.Value
}

func (f *frame) enter() { f.scopes = append(f.scopes, map[string]*binding{}) }
func (f *frame) exit()  { f.scopes = f.scopes[:len(f.scopes)-1] }

func (f *frame) declare(name string, v value.Value) {
	f.scopes[len(f.scopes)-1][name] = &binding{v: v}
}

func (f *frame) lookup(name string) (*binding, error) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if b, ok := f.scopes[i][name]; ok {
			return b, nil
		}
	}
	return nil, errors.Errorf("%s: unbound variable %s", f.fun.Name, name)
}

// get reads a variable without copying it.
func (f *frame) get(name string) (value.Value, error) {
	b, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	if b.v == nil {
		return nil, value.Faultf(value.FaultUninitialized, f.fun.Name, "%s", name)
	}
	return b.v, nil
}

func (f *frame) fault(kind value.FaultKind) error {
	return &value.Fault{Kind: kind, Function: f.fun.Name}
}

func (f *frame) eval(e lang.Expr) (value.Value, error) {
	return lang.VisitExpr[value.Value](e, f)
}

func (f *frame) evalInt(e lang.Expr) (value.Int, error) {
	v, err := f.eval(e)
	if err != nil {
		return 0, err
	}
	i, ok := v.(value.Int)
	if !ok {
		return 0, errors.Errorf("%s: %s is %T, not int", f.fun.Name, lang.ExprString(e), v)
	}
	return i, nil
}

func (f *frame) evalBool(e lang.Expr) (bool, error) {
	v, err := f.eval(e)
	if err != nil {
		return false, err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return false, errors.Errorf("%s: %s is %T, not bool", f.fun.Name, lang.ExprString(e), v)
	}
	return bool(b), nil
}

// record resolves the record layout of a static type.
func (f *frame) record(t lang.Type) (*lang.RecordType, error) {
	u, err := lang.Underlying(t, f.in.aliases)
	if err != nil {
		return nil, err
	}
	r, ok := u.(*lang.RecordType)
	if !ok {
		return nil, errors.Errorf("%s is not a record type", t)
	}
	return r, nil
}
