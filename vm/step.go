package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/value"
)

// asInt reads an int operand. Booleans are 0 or 1.
func asInt(v value.Value) (value.Int, bool) {
	switch v := v.(type) {
	case value.Int:
		return v, true
	case value.Bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func (f *frame) ints(operands []value.Value) ([]value.Int, error) {
	out := make([]value.Int, len(operands))
	for i, v := range operands {
		n, ok := asInt(v)
		if !ok {
			return nil, f.errorf("operand %d is %T, not int", i, v)
		}
		out[i] = n
	}
	return out, nil
}

func constant(in jvm.Instr) (value.Value, error) {
	switch v := in.Value.(type) {
	case int32:
		return value.Int(v), nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.Str(v), nil
	default:
		return nil, errors.Errorf("constant of Go type %T", v)
	}
}

// step executes every instruction except returns and calls. operands are
// the values the instruction pops, bottom of the stack first.
func (m *Machine) step(f *frame, in jvm.Instr, operands []value.Value) error {
	switch in.Op {
	case jvm.OpLabel:
		return f.errorf("unresolved label %s", in.Label)

	case jvm.OpLdc:
		v, err := constant(in)
		if err != nil {
			return f.errorf("%v", err)
		}
		f.push(v)

	case jvm.OpLoad:
		if in.Slot < 0 || in.Slot >= len(f.locals) {
			return f.errorf("slot %d outside %d locals", in.Slot, len(f.locals))
		}
		v := f.locals[in.Slot]
		if v == nil {
			return value.Faultf(value.FaultUninitialized, f.unit.Name, "slot %d", in.Slot)
		}
		f.push(v)

	case jvm.OpStore:
		if in.Slot < 0 || in.Slot >= len(f.locals) {
			return f.errorf("slot %d outside %d locals", in.Slot, len(f.locals))
		}
		f.locals[in.Slot] = operands[0]

	case jvm.OpClear:
		if in.Slot < 0 || in.Slot >= len(f.locals) {
			return f.errorf("slot %d outside %d locals", in.Slot, len(f.locals))
		}
		f.locals[in.Slot] = nil

	case jvm.OpIadd, jvm.OpIsub, jvm.OpImul, jvm.OpIdiv, jvm.OpIrem, jvm.OpIxor:
		xs, err := f.ints(operands)
		if err != nil {
			return err
		}
		r, err := arith(f, in.Op, xs[0], xs[1])
		if err != nil {
			return err
		}
		if in.Op == jvm.OpIxor && in.Type.Kind == jvm.KindBoolean {
			f.push(value.Bool(r != 0))
		} else {
			f.push(r)
		}

	case jvm.OpIneg:
		xs, err := f.ints(operands)
		if err != nil {
			return err
		}
		f.push(-xs[0])

	case jvm.OpIfeq, jvm.OpIfne:
		xs, err := f.ints(operands)
		if err != nil {
			return err
		}
		if (xs[0] == 0) == (in.Op == jvm.OpIfeq) {
			f.pc = in.Target
		}

	case jvm.OpIfIcmp:
		xs, err := f.ints(operands)
		if err != nil {
			return err
		}
		if in.Cond.Holds(int32(xs[0]), int32(xs[1])) {
			f.pc = in.Target
		}

	case jvm.OpGoto:
		f.pc = in.Target

	case jvm.OpNew:
		f.push(&value.Object{Class: in.Type.Class})

	case jvm.OpPrint:
		if _, err := fmt.Fprintln(m.out, value.Format(operands[0])); err != nil {
			return errors.Wrap(err, "writing output")
		}

	case jvm.OpPop:

	case jvm.OpConvert:
		v, err := convert(in, operands[0])
		if err != nil {
			return f.errorf("%v", err)
		}
		f.push(v)

	case jvm.OpEquals:
		f.push(value.Bool(value.Equal(operands[0], operands[1])))

	case jvm.OpAppend:
		v, err := value.Append(operands[0], operands[1])
		if err != nil {
			return f.errorf("%v", err)
		}
		f.push(v)

	case jvm.OpLength:
		n, err := value.Length(operands[0])
		if err != nil {
			return f.errorf("%v", err)
		}
		f.push(n)

	case jvm.OpClone:
		f.push(value.Clone(operands[0]))

	case jvm.OpNewList:
		f.push(&value.List{Elems: operands})

	case jvm.OpListLoad:
		l, slot, err := f.element(operands[0], operands[1])
		if err != nil {
			return err
		}
		f.push(l.Elems[slot])

	case jvm.OpListStore:
		l, slot, err := f.element(operands[1], operands[2])
		if err != nil {
			return err
		}
		l.Elems[slot] = operands[0]

	case jvm.OpNewRecord:
		r := &value.Record{Fields: make([]value.Field, len(in.Type.Fields))}
		for i, field := range in.Type.Fields {
			r.Fields[i] = value.Field{Name: field.Name, Value: operands[field.Offset]}
		}
		f.push(r)

	case jvm.OpGetField:
		r, err := f.field(operands[0], in.Field)
		if err != nil {
			return err
		}
		f.push(r.Fields[in.Field.Offset].Value)

	case jvm.OpPutField:
		r, err := f.field(operands[1], in.Field)
		if err != nil {
			return err
		}
		r.Fields[in.Field.Offset].Value = operands[0]

	default:
		return f.errorf("unknown opcode %s", in.Op)
	}
	return nil
}

func arith(f *frame, op jvm.Op, a, b value.Int) (value.Int, error) {
	switch op {
	case jvm.OpIadd:
		return a + b, nil
	case jvm.OpIsub:
		return a - b, nil
	case jvm.OpImul:
		return a * b, nil
	case jvm.OpIdiv:
		return value.Div(f.unit.Name, a, b)
	case jvm.OpIrem:
		return value.Rem(f.unit.Name, a, b)
	default:
		return a ^ b, nil
	}
}

// convert implements int and boolean to string conversion and record
// projection onto the layout in.Type.
func convert(in jvm.Instr, v value.Value) (value.Value, error) {
	switch in.Type.Kind {
	case jvm.KindString:
		return value.Str(value.Format(v)), nil
	case jvm.KindRecord:
		r, ok := v.(*value.Record)
		if !ok {
			return nil, errors.Errorf("convert of %T to a record", v)
		}
		names := make([]string, len(in.Type.Fields))
		for i, field := range in.Type.Fields {
			names[i] = field.Name
		}
		return value.Project(r, names)
	default:
		return nil, errors.Errorf("no conversion from %s to %s", in.From, in.Type)
	}
}

func (f *frame) element(list, index value.Value) (*value.List, int, error) {
	l, ok := list.(*value.List)
	if !ok {
		return nil, 0, f.errorf("indexing %T", list)
	}
	i, ok := asInt(index)
	if !ok {
		return nil, 0, f.errorf("index is %T", index)
	}
	slot, err := value.Index(f.unit.Name, l, i)
	if err != nil {
		return nil, 0, err
	}
	return l, slot, nil
}

func (f *frame) field(v value.Value, field jvm.RecordField) (*value.Record, error) {
	r, ok := v.(*value.Record)
	if !ok {
		return nil, f.errorf("field access on %T", v)
	}
	if field.Offset < 0 || field.Offset >= len(r.Fields) || r.Fields[field.Offset].Name != field.Name {
		return nil, f.errorf("record has no field %s at offset %d", field.Name, field.Offset)
	}
	return r, nil
}
