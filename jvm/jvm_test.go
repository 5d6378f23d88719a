package jvm

import (
	"errors"
	"testing"

	"github.com/blang/semver"
	"github.com/nalgeon/be"
)

func TestDescriptors(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Void, "V"},
		{Int, "I"},
		{Boolean, "Z"},
		{String, "Ljava/lang/String;"},
		{ListOf(Int), "Ljava/util/ArrayList;"},
		{RecordOf(RecordField{Name: "x", Type: Int}), "Ljava/util/HashMap;"},
		{Args, "[Ljava/lang/String;"},
		{ObjectOf("count"), "Lcount;"},
	}

	for _, test := range tests {
		t.Run(test.typ.String(), func(t *testing.T) {
			be.Equal(t, test.typ.Descriptor(), test.expected)
		})
	}
}

func TestBoxing(t *testing.T) {
	be.Equal(t, Int.Boxed(), "java/lang/Integer")
	be.Equal(t, Boolean.Boxed(), "java/lang/Boolean")
	be.Equal(t, String.Boxed(), "java/lang/String")
	be.True(t, !Int.IsReference())
	be.True(t, ListOf(Int).IsReference())
	be.True(t, ListOf(Int).IsComposite())
	be.True(t, !String.IsComposite())
	be.Equal(t, Void.Width(), 0)
	be.Equal(t, Boolean.Width(), 1)
}

func TestTypeEqual(t *testing.T) {
	point := RecordOf(RecordField{Name: "x", Type: Int}, RecordField{Name: "y", Type: Boolean})
	be.True(t, point.Equal(RecordOf(RecordField{Name: "x", Type: Int}, RecordField{Name: "y", Type: Boolean})))
	be.True(t, !point.Equal(RecordOf(RecordField{Name: "y", Type: Boolean}, RecordField{Name: "x", Type: Int})))
	be.True(t, ListOf(ListOf(Int)).Equal(ListOf(ListOf(Int))))
	be.True(t, !ListOf(Int).Equal(ListOf(Boolean)))
	be.True(t, !Int.Equal(Boolean))
	be.True(t, !ObjectOf("a").Equal(ObjectOf("b")))

	y, ok := point.Field("y")
	be.True(t, ok)
	be.Equal(t, y.Offset, 1)
	be.Equal(t, point.String(), "{x:int,y:boolean}")
}

func TestInstrString(t *testing.T) {
	sig := &Signature{Name: "f", Params: []Type{Int, ListOf(Int)}, Return: Boolean}
	point := RecordOf(RecordField{Name: "x", Type: Int})
	x, _ := point.Field("x")

	tests := []struct {
		in       Instr
		expected string
	}{
		{Ldc(Int, int32(5)), "ldc 5"},
		{Ldc(Boolean, true), "ldc true"},
		{Ldc(String, "a\"b"), `ldc "a\"b"`},
		{Load(1, Int), "iload 1"},
		{Load(0, ObjectOf("c")), "aload 0"},
		{Store(2, Boolean), "istore 2"},
		{Store(3, ListOf(Int)), "astore 3"},
		{Clear(4), "clear 4"},
		{Arith(OpIadd, Int), "iadd"},
		{Arith(OpIxor, Boolean), "ixor"},
		{Ifeq(3), "ifeq L3"},
		{Instr{Op: OpGoto, Target: 7}, "goto 7"},
		{IfIcmp(CondLe, 2), "if_icmple L2"},
		{Mark(4), "L4:"},
		{Return(Void), "return"},
		{Return(Int), "ireturn"},
		{Return(String), "areturn"},
		{New(ObjectOf("c")), "new c"},
		{InvokeVirtual(sig), "invokevirtual f(ILjava/util/ArrayList;)Z"},
		{Print(ListOf(Int)), "print list<int>"},
		{Convert(Int, String), "convert int string"},
		{NewList(Int, 3), "newlist int 3"},
		{ListLoad(Boolean), "listload boolean"},
		{NewRecord(point), "newrecord {x:int}"},
		{GetField(x), "getfield x:0"},
		{PutField(x), "putfield x:0"},
		{Unreachable(), "unreachable"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			be.Equal(t, test.in.String(), test.expected)
		})
	}
}

func TestStackEffect(t *testing.T) {
	sig := &Signature{Name: "f", Params: []Type{Int, Int}, Return: Void}
	pops, pushes := InvokeVirtual(sig).StackEffect()
	be.Equal(t, pops, 3)
	be.Equal(t, pushes, 0)

	pops, pushes = NewRecord(RecordOf(RecordField{Name: "a", Type: Int}, RecordField{Name: "b", Type: Int})).StackEffect()
	be.Equal(t, pops, 2)
	be.Equal(t, pushes, 1)

	pops, _ = ListStore(Int).StackEffect()
	be.Equal(t, pops, 3)
}

func resolved(op Op, target int) Instr {
	return Instr{Op: op, Target: target}
}

func TestAnalyze(t *testing.T) {
	// x = a < b
	code := []Instr{
		Load(1, Int),
		Load(2, Int),
		Instr{Op: OpIfIcmp, Cond: CondLt, Target: 5},
		Ldc(Boolean, false),
		resolved(OpGoto, 6),
		Ldc(Boolean, true),
		Store(3, Boolean),
		Return(Void),
	}
	maxStack, err := Analyze(code)
	be.Err(t, err, nil)
	be.Equal(t, maxStack, 2)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []Instr
		msg  string
	}{
		{
			name: "underflow",
			code: []Instr{Arith(OpIadd, Int), Return(Void)},
			msg:  "at 0 (iadd): stack underflow: need 2, have 0",
		},
		{
			name: "falls off end",
			code: []Instr{Ldc(Int, int32(1)), Pop(Int)},
			msg:  "at 1 (pop int): falls off the end of the code",
		},
		{
			name: "leftover value at return",
			code: []Instr{Ldc(Int, int32(1)), Return(Void)},
			msg:  "at 1 (return): return with 1 values on the stack",
		},
		{
			name: "depth mismatch at merge",
			code: []Instr{
				Ldc(Boolean, true),
				resolved(OpIfeq, 3),
				Ldc(Int, int32(1)),
				Return(Void),
			},
			msg: "at 3 (return): stack depth mismatch: 0 and 1",
		},
		{
			name: "target out of range",
			code: []Instr{resolved(OpGoto, 9)},
			msg:  "at 0 (goto 9): branch target 9 out of range",
		},
		{
			name: "unresolved label",
			code: []Instr{Goto(1), Mark(1), Return(Void)},
			msg:  "at 0 (goto L1): unresolved branch to L1",
		},
		{
			name: "empty",
			code: nil,
			msg:  "at 0: empty code",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Analyze(test.code)
			be.True(t, err != nil)
			be.Equal(t, err.Error(), test.msg)
			var stackErr *StackError
			be.True(t, errors.As(err, &stackErr))
		})
	}
}

func TestDisassemble(t *testing.T) {
	mainSig := &Signature{Name: "main", Params: []Type{Args}, Return: Void, Static: true}
	prog := &Program{
		Name:    "hello",
		Version: semver.Version{Major: 49},
		Functions: []*FunctionUnit{{
			Name:       "main",
			Sig:        mainSig,
			EntryPoint: true,
			Code:       []Instr{Ldc(String, "hi"), Print(String), Return(Void)},
			MaxStack:   1,
			MaxLocals:  1,
		}},
	}

	expected := `class hello version 49.0

method main([Ljava/lang/String;)V static entry stack=1 locals=1
  0: ldc "hi"
  1: print string
  2: return
`
	be.Equal(t, Disassemble(prog), expected)
	be.Equal(t, prog.EntryPoint().Name, "main")
	be.True(t, prog.Function("other") == nil)
}

func TestListingSkipsLabelNumbers(t *testing.T) {
	code := []Instr{Mark(1), Ldc(Boolean, true), Ifeq(2), Goto(1), Mark(2), Return(Void)}
	expected := "L1:\n0: ldc true\n1: ifeq L2\n2: goto L1\nL2:\n3: return\n"
	be.Equal(t, Listing(code), expected)
}
