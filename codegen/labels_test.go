package codegen

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/whilejvm/jvm"
)

func TestResolveLabels(t *testing.T) {
	code := []jvm.Instr{
		jvm.Mark(1),
		jvm.Ldc(jvm.Boolean, true),
		jvm.Ifeq(2),
		jvm.Goto(1),
		jvm.Mark(2),
		jvm.Mark(3),
		jvm.Return(jvm.Void),
	}

	out, err := ResolveLabels(code)
	be.Err(t, err, nil)
	be.Equal(t, len(out), 4)
	be.Equal(t, out[1].Target, 3)
	be.Equal(t, out[1].Label, jvm.Label(0))
	be.Equal(t, out[2].Target, 0)
	be.Equal(t, jvm.Listing(out), "0: ldc true\n1: ifeq 3\n2: goto 0\n3: return\n")
}

func TestResolveLabelsErrors(t *testing.T) {
	tests := []struct {
		name string
		code []jvm.Instr
		msg  string
	}{
		{
			name: "never placed",
			code: []jvm.Instr{jvm.Goto(4), jvm.Goto(2), jvm.Return(jvm.Void)},
			msg:  "label L2: never placed",
		},
		{
			name: "placed twice",
			code: []jvm.Instr{jvm.Mark(1), jvm.Mark(1), jvm.Return(jvm.Void)},
			msg:  "label L1: placed more than once",
		},
		{
			name: "past the end",
			code: []jvm.Instr{jvm.Goto(1), jvm.Mark(1)},
			msg:  "label L1: placed past the end of the code",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ResolveLabels(test.code)
			be.Err(t, err, test.msg)
			var labelErr *UnresolvedLabelError
			be.True(t, errors.As(err, &labelErr))
		})
	}
}

func TestUnplacedTrailingLabelIsFine(t *testing.T) {
	out, err := ResolveLabels([]jvm.Instr{jvm.Return(jvm.Void), jvm.Mark(1)})
	be.Err(t, err, nil)
	be.Equal(t, len(out), 1)
}

func TestLabelAllocator(t *testing.T) {
	var a labelAllocator
	be.Equal(t, a.New(), jvm.Label(1))
	be.Equal(t, a.New(), jvm.Label(2))
}
