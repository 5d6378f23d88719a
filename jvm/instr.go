package jvm

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is an instruction opcode.
type Op int

const (
	OpLabel Op = iota // pseudo-instruction marking a branch target

	// Constants and locals
	OpLdc
	OpLoad
	OpStore
	OpClear

	// Integer arithmetic. Booleans are 0/1 ints for OpIxor.
	OpIadd
	OpIsub
	OpImul
	OpIdiv
	OpIrem
	OpIxor
	OpIneg

	// Control flow
	OpIfeq
	OpIfne
	OpIfIcmp
	OpGoto
	OpReturn
	OpUnreachable

	// Calls
	OpNew
	OpInvokeVirtual

	// Runtime library
	OpPrint
	OpPop
	OpConvert
	OpEquals
	OpAppend
	OpLength
	OpClone

	// Collections
	OpNewList
	OpListLoad
	OpListStore
	OpNewRecord
	OpGetField
	OpPutField
)

var opNames = [...]string{
	OpLabel:         "label",
	OpLdc:           "ldc",
	OpLoad:          "load",
	OpStore:         "store",
	OpClear:         "clear",
	OpIadd:          "iadd",
	OpIsub:          "isub",
	OpImul:          "imul",
	OpIdiv:          "idiv",
	OpIrem:          "irem",
	OpIxor:          "ixor",
	OpIneg:          "ineg",
	OpIfeq:          "ifeq",
	OpIfne:          "ifne",
	OpIfIcmp:        "if_icmp",
	OpGoto:          "goto",
	OpReturn:        "return",
	OpUnreachable:   "unreachable",
	OpNew:           "new",
	OpInvokeVirtual: "invokevirtual",
	OpPrint:         "print",
	OpPop:           "pop",
	OpConvert:       "convert",
	OpEquals:        "equals",
	OpAppend:        "append",
	OpLength:        "length",
	OpClone:         "clone",
	OpNewList:       "newlist",
	OpListLoad:      "listload",
	OpListStore:     "liststore",
	OpNewRecord:     "newrecord",
	OpGetField:      "getfield",
	OpPutField:      "putfield",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsBranch reports whether op transfers control to Target.
func (op Op) IsBranch() bool {
	return op == OpIfeq || op == OpIfne || op == OpIfIcmp || op == OpGoto
}

// FallsThrough reports whether execution may continue with the next
// instruction.
func (op Op) FallsThrough() bool {
	return op != OpGoto && op != OpReturn && op != OpUnreachable
}

// Cond is the comparison of an if_icmp instruction.
type Cond int

const (
	CondEq Cond = iota
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
)

func (c Cond) String() string {
	switch c {
	case CondEq:
		return "eq"
	case CondNe:
		return "ne"
	case CondLt:
		return "lt"
	case CondLe:
		return "le"
	case CondGt:
		return "gt"
	case CondGe:
		return "ge"
	default:
		return fmt.Sprintf("cond(%d)", int(c))
	}
}

// Holds applies the comparison to two ints.
func (c Cond) Holds(a, b int32) bool {
	switch c {
	case CondEq:
		return a == b
	case CondNe:
		return a != b
	case CondLt:
		return a < b
	case CondLe:
		return a <= b
	case CondGt:
		return a > b
	case CondGe:
		return a >= b
	default:
		return false
	}
}

// Label is a symbolic branch target, unique within a function. The zero
// Label means "none".
type Label int

func (l Label) String() string { return "L" + strconv.Itoa(int(l)) }

// Instr is one stack-machine instruction. Which fields are meaningful depends
// on Op.
type Instr struct {
	Op Op

	// Type is the operand or element type: the value type of ldc, load,
	// store, return, print, pop, append and clone; the element type of
	// newlist, listload and liststore; the layout of newrecord; the target
	// type of convert.
	Type Type
	// From is the source type of convert.
	From Type

	Slot  int
	Value any // ldc: int32, bool or string
	Cond  Cond

	// Label names the branch target (or the label itself for OpLabel) until
	// resolution, after which branches carry Target instead.
	Label  Label
	Target int

	Sig   *Signature // invokevirtual
	Field RecordField
	Count int // newlist
}

func Ldc(t Type, v any) Instr { return Instr{Op: OpLdc, Type: t, Value: v} }
func Load(slot int, t Type) Instr { return Instr{Op: OpLoad, Type: t, Slot: slot} }
func Store(slot int, t Type) Instr { return Instr{Op: OpStore, Type: t, Slot: slot} }

// Clear unsets a local, so that reading it before the next store faults.
func Clear(slot int) Instr { return Instr{Op: OpClear, Slot: slot} }

func Arith(op Op, t Type) Instr { return Instr{Op: op, Type: t} }
func Ifeq(l Label) Instr { return Instr{Op: OpIfeq, Label: l} }
func Ifne(l Label) Instr { return Instr{Op: OpIfne, Label: l} }
func IfIcmp(c Cond, l Label) Instr { return Instr{Op: OpIfIcmp, Cond: c, Label: l} }
func Goto(l Label) Instr { return Instr{Op: OpGoto, Label: l} }
func Mark(l Label) Instr { return Instr{Op: OpLabel, Label: l} }
func Return(t Type) Instr { return Instr{Op: OpReturn, Type: t} }
func Unreachable() Instr { return Instr{Op: OpUnreachable} }
func New(t Type) Instr { return Instr{Op: OpNew, Type: t} }
func InvokeVirtual(sig *Signature) Instr { return Instr{Op: OpInvokeVirtual, Sig: sig} }
func Print(t Type) Instr { return Instr{Op: OpPrint, Type: t} }
func Pop(t Type) Instr { return Instr{Op: OpPop, Type: t} }
func Convert(from, to Type) Instr { return Instr{Op: OpConvert, From: from, Type: to} }
func Equals() Instr { return Instr{Op: OpEquals} }
func Append(t Type) Instr { return Instr{Op: OpAppend, Type: t} }
func Length() Instr { return Instr{Op: OpLength} }
func Clone(t Type) Instr { return Instr{Op: OpClone, Type: t} }
func NewList(elem Type, count int) Instr { return Instr{Op: OpNewList, Type: elem, Count: count} }
func ListLoad(elem Type) Instr { return Instr{Op: OpListLoad, Type: elem} }
func ListStore(elem Type) Instr { return Instr{Op: OpListStore, Type: elem} }
func NewRecord(layout Type) Instr { return Instr{Op: OpNewRecord, Type: layout} }
func GetField(f RecordField) Instr { return Instr{Op: OpGetField, Field: f} }
func PutField(f RecordField) Instr { return Instr{Op: OpPutField, Field: f} }

// StackEffect returns how many values the instruction pops and pushes.
func (in Instr) StackEffect() (pops, pushes int) {
	switch in.Op {
	case OpLabel, OpGoto, OpUnreachable, OpClear:
		return 0, 0
	case OpLdc, OpLoad, OpNew:
		return 0, 1
	case OpStore, OpIfeq, OpIfne, OpPrint, OpPop:
		return 1, 0
	case OpIadd, OpIsub, OpImul, OpIdiv, OpIrem, OpIxor, OpEquals, OpAppend, OpListLoad:
		return 2, 1
	case OpIneg, OpConvert, OpLength, OpClone, OpGetField:
		return 1, 1
	case OpIfIcmp, OpPutField:
		return 2, 0
	case OpListStore:
		return 3, 0
	case OpReturn:
		return in.Type.Width(), 0
	case OpInvokeVirtual:
		pops = len(in.Sig.Params) + 1
		return pops, in.Sig.Return.Width()
	case OpNewList:
		return in.Count, 1
	case OpNewRecord:
		return len(in.Type.Fields), 1
	default:
		return 0, 0
	}
}

func (in Instr) target() string {
	if in.Label != 0 {
		return in.Label.String()
	}
	return strconv.Itoa(in.Target)
}

func (in Instr) String() string {
	switch in.Op {
	case OpLabel:
		return in.Label.String() + ":"
	case OpLdc:
		if s, ok := in.Value.(string); ok {
			return "ldc " + strconv.Quote(s)
		}
		return fmt.Sprintf("ldc %v", in.Value)
	case OpLoad, OpStore:
		return fmt.Sprintf("%s%s %d", in.Type.Prefix(), in.Op, in.Slot)
	case OpClear:
		return fmt.Sprintf("clear %d", in.Slot)
	case OpIfeq, OpIfne, OpGoto:
		return in.Op.String() + " " + in.target()
	case OpIfIcmp:
		return in.Op.String() + in.Cond.String() + " " + in.target()
	case OpReturn:
		return in.Type.Prefix() + "return"
	case OpNew:
		return "new " + in.Type.String()
	case OpInvokeVirtual:
		return "invokevirtual " + in.Sig.String()
	case OpPrint, OpPop, OpAppend, OpClone, OpListLoad, OpListStore, OpNewRecord:
		return in.Op.String() + " " + in.Type.String()
	case OpConvert:
		return fmt.Sprintf("convert %s %s", in.From, in.Type)
	case OpNewList:
		return fmt.Sprintf("newlist %s %d", in.Type, in.Count)
	case OpGetField, OpPutField:
		return fmt.Sprintf("%s %s:%d", in.Op, in.Field.Name, in.Field.Offset)
	default:
		return in.Op.String()
	}
}

// Listing formats code one instruction per line, prefixed with its index.
// Label pseudo-instructions are not numbered.
func Listing(code []Instr) string {
	var sb strings.Builder
	i := 0
	for _, in := range code {
		if in.Op == OpLabel {
			fmt.Fprintf(&sb, "%s\n", in)
			continue
		}
		fmt.Fprintf(&sb, "%d: %s\n", i, in)
		i++
	}
	return sb.String()
}
