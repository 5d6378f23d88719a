// Package vm executes compiled stack-machine programs. It models the parts
// of JVM semantics the code generator relies on: per-frame locals and
// operand stacks, booleans as 0/1 ints, and virtual calls through a receiver
// in slot 0.
package vm

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/logging"
	"github.com/strager/whilejvm/value"
)

// Machine runs one program. It is not safe for concurrent use.
type Machine struct {
	prog  *jvm.Program
	out   io.Writer
	depth int

	// Steps counts executed instructions across all frames.
	Steps int64
}

func New(prog *jvm.Program, out io.Writer) *Machine {
	return &Machine{prog: prog, out: out}
}

// Run executes the entry point of prog, writing printed values to out.
func Run(prog *jvm.Program, args []string, out io.Writer) error {
	return New(prog, out).Run(args)
}

// Run invokes the static entry point with args in slot 0. Declared
// parameters after the argument vector start at their zero values.
func (m *Machine) Run(args []string) error {
	entry := m.prog.EntryPoint()
	if entry == nil {
		return errors.New("program has no entry point")
	}
	if len(entry.Sig.Params) == 0 || entry.Sig.Params[0].Kind != jvm.KindArray {
		return errors.Errorf("entry point %s does not take an argument vector", entry.Sig)
	}

	params := []value.Value{&value.Array{Elems: args}}
	for _, t := range entry.Sig.Params[1:] {
		v, err := Zero(t)
		if err != nil {
			return errors.Wrapf(err, "entry point %s", entry.Sig)
		}
		params = append(params, v)
	}
	logging.V(5).Infof("running %s.%s", m.prog.Name, entry.Sig)
	_, err := m.call(entry, params)
	logging.V(5).Infof("executed %d instructions", m.Steps)
	return err
}

// Zero is the initial value of an entry point parameter of type t.
func Zero(t jvm.Type) (value.Value, error) {
	switch t.Kind {
	case jvm.KindInt:
		return value.Int(0), nil
	case jvm.KindBoolean:
		return value.Bool(false), nil
	case jvm.KindString:
		return value.Str(""), nil
	case jvm.KindList:
		return &value.List{}, nil
	case jvm.KindRecord:
		r := &value.Record{}
		for _, f := range t.Fields {
			v, err := Zero(f.Type)
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

// frame is one method activation.
type frame struct {
	unit   *jvm.FunctionUnit
	locals []value.Value
	stack  []value.Value
	pc     int
}

func (f *frame) push(vs ...value.Value) {
	f.stack = append(f.stack, vs...)
}

// ExecError reports malformed code, as opposed to a runtime fault of a
// well-formed program.
type ExecError struct {
	Function string
	Index    int
	Instr    string
	Msg      string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s at %d (%s): %s", e.Function, e.Index, e.Instr, e.Msg)
}

func (f *frame) errorf(format string, args ...any) error {
	e := &ExecError{Function: f.unit.Name, Index: f.pc - 1, Msg: fmt.Sprintf(format, args...)}
	if e.Index >= 0 && e.Index < len(f.unit.Code) {
		e.Instr = f.unit.Code[e.Index].String()
	}
	return e
}

func (f *frame) fault(kind value.FaultKind) error {
	return &value.Fault{Kind: kind, Function: f.unit.Name}
}

func (m *Machine) call(unit *jvm.FunctionUnit, args []value.Value) (value.Value, error) {
	if m.depth >= value.MaxCallDepth {
		return nil, value.Faultf(value.FaultCallDepth, unit.Name, "depth %d", m.depth)
	}
	if len(args) > unit.MaxLocals {
		return nil, errors.Errorf("%s: %d arguments do not fit in %d locals", unit.Sig, len(args), unit.MaxLocals)
	}
	m.depth++
	defer func() { m.depth-- }()
	logging.V(7).Infof("invoke %s at depth %d", unit.Sig, m.depth)

	f := &frame{
		unit:   unit,
		locals: make([]value.Value, unit.MaxLocals),
		stack:  make([]value.Value, 0, unit.MaxStack),
	}
	copy(f.locals, args)
	return m.exec(f)
}

// exec runs f until it returns.
func (m *Machine) exec(f *frame) (value.Value, error) {
	code := f.unit.Code
	for {
		if f.pc < 0 || f.pc >= len(code) {
			return nil, f.errorf("pc %d outside the code", f.pc)
		}
		in := code[f.pc]
		f.pc++
		m.Steps++

		pops, _ := in.StackEffect()
		if len(f.stack) < pops {
			return nil, f.errorf("stack underflow: need %d, have %d", pops, len(f.stack))
		}
		operands := append([]value.Value(nil), f.stack[len(f.stack)-pops:]...)
		f.stack = f.stack[:len(f.stack)-pops]

		switch in.Op {
		case jvm.OpReturn:
			if pops == 0 {
				return nil, nil
			}
			return operands[0], nil
		case jvm.OpUnreachable:
			return nil, f.fault(value.FaultMissingReturn)
		case jvm.OpInvokeVirtual:
			ret, err := m.invoke(f, in.Sig, operands)
			if err != nil {
				return nil, err
			}
			if in.Sig.Return.Width() > 0 {
				f.push(ret)
			}
		default:
			if err := m.step(f, in, operands); err != nil {
				return nil, err
			}
		}
	}
}

// invoke calls the method named by sig. operands holds the receiver followed
// by the arguments.
func (m *Machine) invoke(f *frame, sig *jvm.Signature, operands []value.Value) (value.Value, error) {
	callee := m.prog.Function(sig.Name)
	if callee == nil {
		return nil, f.errorf("no method %s", sig)
	}
	if _, ok := operands[0].(*value.Object); !ok {
		return nil, f.errorf("receiver is %T", operands[0])
	}
	ret, err := m.call(callee, operands)
	if err != nil {
		return nil, err
	}
	if sig.Return.Width() > 0 && ret == nil {
		return nil, f.errorf("%s returned no value", sig)
	}
	return ret, nil
}
