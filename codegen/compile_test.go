package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

func compileSource(t *testing.T, src string) (*jvm.Program, error) {
	t.Helper()
	prog, err := lang.Parse(src, lang.DecodeOptions{EntryPoint: "main"})
	be.Err(t, err, nil)
	return Compile(prog, DefaultOptions("test"))
}

func mustCompile(t *testing.T, src string) *jvm.Program {
	t.Helper()
	out, err := compileSource(t, src)
	be.Err(t, err, nil)
	return out
}

// listing compiles a program holding only fun and returns fun's code.
func listing(t *testing.T, fun string) string {
	t.Helper()
	out := mustCompile(t, "(program "+fun+")")
	be.Equal(t, len(out.Functions), 1)
	return strings.TrimSpace(jvm.Listing(out.Functions[0].Code))
}

func lines(s ...string) string {
	return strings.Join(s, "\n")
}

func TestForLoop(t *testing.T) {
	out := mustCompile(t, `(program (fun main void ()
		(for (decl int i (const int 0))
		     (binary bool < (var int i) (const int 3))
		     (assign (var int i) (binary int + (var int i) (const int 1)))
		     (block (print (var int i))))))`)

	main := out.Functions[0]
	be.Equal(t, strings.TrimSpace(jvm.Listing(main.Code)), lines(
		"0: ldc 0",
		"1: istore 1",
		"2: iload 1",
		"3: ldc 3",
		"4: if_icmplt 7",
		"5: ldc false",
		"6: goto 8",
		"7: ldc true",
		"8: ifeq 16",
		"9: iload 1",
		"10: print int",
		"11: iload 1",
		"12: ldc 1",
		"13: iadd",
		"14: istore 1",
		"15: goto 2",
		"16: return",
	))
	be.Equal(t, main.MaxStack, 2)
	be.Equal(t, main.MaxLocals, 2)
}

func TestShortCircuit(t *testing.T) {
	and := listing(t, `(fun f bool ((a bool) (b bool))
		(return (binary bool && (var bool a) (var bool b))))`)
	be.Equal(t, and, lines(
		"0: iload 1",
		"1: ifeq 4",
		"2: iload 2",
		"3: goto 5",
		"4: ldc false",
		"5: ireturn",
	))

	or := listing(t, `(fun f bool ((a bool) (b bool))
		(return (binary bool || (var bool a) (var bool b))))`)
	be.Equal(t, or, lines(
		"0: iload 1",
		"1: ifne 4",
		"2: iload 2",
		"3: goto 5",
		"4: ldc true",
		"5: ireturn",
	))
}

func TestIfElseBothReturn(t *testing.T) {
	code := listing(t, `(fun abs int ((x int))
		(if (binary bool < (var int x) (const int 0))
			(block (return (unary int - (var int x))))
			(block (return (var int x)))))`)
	be.Equal(t, code, lines(
		"0: iload 1",
		"1: ldc 0",
		"2: if_icmplt 5",
		"3: ldc false",
		"4: goto 6",
		"5: ldc true",
		"6: ifeq 10",
		"7: iload 1",
		"8: ineg",
		"9: ireturn",
		"10: iload 1",
		"11: ireturn",
	))
}

func TestIfWithoutElse(t *testing.T) {
	code := listing(t, `(fun f void ((b bool))
		(if (var bool b) (block (print (const int 1)))))`)
	be.Equal(t, code, lines(
		"0: iload 1",
		"1: ifeq 5",
		"2: ldc 1",
		"3: print int",
		"4: goto 5",
		"5: return",
	))
}

func TestNonVoidFallThroughIsUnreachable(t *testing.T) {
	code := listing(t, `(fun f int ((b bool))
		(while (var bool b) (block (return (const int 1)))))`)
	be.True(t, strings.HasSuffix(code, "unreachable"))
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{"not", `(unary bool ! (var bool b))`, lines("iload 2", "ldc 1", "ixor")},
		{"negate", `(unary int - (var int i))`, lines("iload 1", "ineg")},
		{"string length", `(unary int len (var string s))`, lines("aload 3", "length")},
		{"list length", `(unary int len (var (list int) xs))`, lines("aload 4", "clone list<int>", "length")},
		{"remainder", `(binary int % (var int i) (const int 2))`, lines("iload 1", "ldc 2", "irem")},
		{"string equality", `(binary bool == (var string s) (const string "a"))`, lines("aload 3", `ldc "a"`, "equals")},
		{"list inequality", `(binary bool != (var (list int) xs) (var (list int) xs))`,
			lines("aload 4", "clone list<int>", "aload 4", "clone list<int>", "equals", "ldc 1", "ixor")},
		{"string append", `(binary string ++ (var string s) (const string "!"))`, lines("aload 3", `ldc "!"`, "append string")},
		{"int to string", `(cast string (const int 5))`, lines("ldc 5", "convert int string")},
		{"bool to string", `(cast string (var bool b))`, lines("iload 2", "convert boolean string")},
		{"identity cast", `(cast int (var int i))`, "iload 1"},
		{"index", `(index int (var (list int) xs) (const int 0))`, lines("aload 4", "clone list<int>", "ldc 0", "listload int")},
		{"list literal", `(newlist (list int) (const int 1) (var int i))`, lines("ldc 1", "iload 1", "newlist int 2")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code := listing(t, `(fun f void ((i int) (b bool) (s string) (xs (list int)))
				(print `+test.expr+`))`)
			var got []string
			for _, line := range strings.Split(code, "\n") {
				_, in, _ := strings.Cut(line, ": ")
				got = append(got, in)
			}
			// Drop the trailing print and return.
			be.Equal(t, strings.Join(got[:len(got)-2], "\n"), test.expected)
		})
	}
}

func TestRecords(t *testing.T) {
	code := listing(t, `(fun f void ()
		(decl (record (x int) (y bool)) r
			(newrecord (record (x int) (y bool)) (y (const bool true)) (x (const int 1))))
		(assign (field int (var (record (x int) (y bool)) r) x) (const int 7))
		(print (cast (record (x int)) (var (record (x int) (y bool)) r)))
		(print (field bool (var (record (x int) (y bool)) r) y)))`)
	be.Equal(t, code, lines(
		"0: ldc 1",
		"1: ldc true",
		"2: newrecord {x:int,y:boolean}",
		"3: astore 1",
		"4: ldc 7",
		"5: aload 1",
		"6: putfield x:0",
		"7: aload 1",
		"8: clone {x:int,y:boolean}",
		"9: convert {x:int,y:boolean} {x:int}",
		"10: print {x:int}",
		"11: aload 1",
		"12: clone {x:int,y:boolean}",
		"13: getfield y:1",
		"14: print boolean",
		"15: return",
	))
}

func TestListStore(t *testing.T) {
	code := listing(t, `(fun f void ()
		(decl (list (list int)) xs (newlist (list (list int)) (newlist (list int) (const int 1))))
		(assign (index int (index (list int) (var (list (list int)) xs) (const int 0)) (const int 0)) (const int 5)))`)
	be.Equal(t, code, lines(
		"0: ldc 1",
		"1: newlist int 1",
		"2: newlist list<int> 1",
		"3: astore 1",
		"4: ldc 5",
		"5: aload 1",
		"6: ldc 0",
		"7: listload list<int>",
		"8: ldc 0",
		"9: liststore int",
		"10: return",
	))
}

func TestNamedTypes(t *testing.T) {
	out := mustCompile(t, `(program
		(type point (record (x int) (y int)))
		(fun origin point () (return (newrecord point (x (const int 0)) (y (const int 0)))))
		(fun main void () (print (field int (invoke point origin) y))))`)

	origin := out.Function("origin")
	be.Equal(t, origin.Sig.Descriptor(), "()Ljava/util/HashMap;")
	be.Equal(t, strings.TrimSpace(jvm.Listing(origin.Code)), lines(
		"0: ldc 0",
		"1: ldc 0",
		"2: newrecord {x:int,y:int}",
		"3: areturn",
	))
}

func TestCalls(t *testing.T) {
	out := mustCompile(t, `(program
		(fun inc int ((x int)) (return (binary int + (var int x) (const int 1))))
		(fun twice void () (expr (invoke int inc (const int 1))) (expr (invoke void nothing)))
		(fun nothing void ())
		(fun main void () (print (invoke int inc (const int 41)))))`)

	main := out.Function("main")
	be.Equal(t, strings.TrimSpace(jvm.Listing(main.Code)), lines(
		"0: new test",
		"1: ldc 41",
		"2: invokevirtual inc(I)I",
		"3: print int",
		"4: return",
	))
	be.Equal(t, main.MaxStack, 2)

	twice := out.Function("twice")
	be.Equal(t, strings.TrimSpace(jvm.Listing(twice.Code)), lines(
		"0: aload 0",
		"1: ldc 1",
		"2: invokevirtual inc(I)I",
		"3: pop int",
		"4: aload 0",
		"5: invokevirtual nothing()V",
		"6: return",
	))
}

func TestEntryPointShape(t *testing.T) {
	out := mustCompile(t, `(program
		(fun helper void ((a int)))
		(fun main void ((n int) (flag bool)) (print (var int n))))`)

	main := out.EntryPoint()
	be.Equal(t, main.Name, "main")
	be.True(t, main.Sig.Static)
	be.Equal(t, main.Sig.Descriptor(), "([Ljava/lang/String;IZ)V")
	be.Equal(t, main.Locals, []jvm.LocalVar{
		{Name: "args", Slot: 0, Type: jvm.Args},
		{Name: "n", Slot: 1, Type: jvm.Int},
		{Name: "flag", Slot: 2, Type: jvm.Boolean},
	})
	be.Equal(t, strings.TrimSpace(jvm.Listing(main.Code)), lines("0: iload 1", "1: print int", "2: return"))

	helper := out.Function("helper")
	be.True(t, !helper.Sig.Static)
	be.Equal(t, helper.Locals[0], jvm.LocalVar{Name: "this", Slot: 0, Type: jvm.ObjectOf("test")})
}

func TestSlotsAreNeverReused(t *testing.T) {
	out := mustCompile(t, `(program (fun f void ((p int))
		(if (const bool true)
			(block (decl int a (const int 1)) (print (var int a)))
			(block (decl string a (const string "x")) (print (var string a))))
		(decl int b (const int 2))
		(print (var int p))))`)

	f := out.Functions[0]
	var slots []int
	for _, local := range f.Locals {
		slots = append(slots, local.Slot)
	}
	be.Equal(t, slots, []int{0, 1, 2, 3, 4})
	be.Equal(t, f.MaxLocals, 5)
	be.Equal(t, f.Locals[3], jvm.LocalVar{Name: "a", Slot: 3, Type: jvm.String})
}

func TestShadowedInitializerSeesOuterBinding(t *testing.T) {
	code := listing(t, `(fun f void ((x int))
		(if (const bool true) (block
			(decl int x (binary int + (var int x) (const int 1)))
			(print (var int x)))))`)
	be.True(t, strings.Contains(code, lines("2: iload 1", "3: ldc 1", "4: iadd", "5: istore 2", "6: iload 2")))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target any
		msg    string
	}{
		{
			name:   "unbound variable",
			src:    `(program (fun f void () (print (var int y))))`,
			target: new(*UnboundVariableError),
			msg:    "function f: 1:32: unbound variable y",
		},
		{
			name:   "variable out of scope",
			src:    `(program (fun f void () (if (const bool true) (block (decl int a (const int 1)))) (print (var int a))))`,
			target: new(*UnboundVariableError),
			msg:    "unbound variable a",
		},
		{
			name:   "unbound function",
			src:    `(program (fun f void () (expr (invoke void g))))`,
			target: new(*UnboundFunctionError),
			msg:    "unbound function g",
		},
		{
			name:   "duplicate parameter",
			src:    `(program (fun f void ((a int) (a bool))))`,
			target: new(*DuplicateParameterError),
			msg:    "duplicate parameter a in f",
		},
		{
			name:   "duplicate function",
			src:    `(program (fun f void ()) (fun f void ()))`,
			target: new(*DuplicateFunctionError),
			msg:    "duplicate function f",
		},
		{
			name:   "unsupported cast",
			src:    `(program (fun f void () (print (cast int (const string "5")))))`,
			target: new(*UnsupportedCastError),
			msg:    "unsupported cast from string to int",
		},
		{
			name:   "projection with a mismatched field",
			src:    `(program (fun f void ((r (record (x int)))) (print (cast (record (x bool)) (var (record (x int)) r)))))`,
			target: new(*UnsupportedCastError),
			msg:    "unsupported cast from (record (x int)) to (record (x bool))",
		},
		{
			name:   "call to entry point",
			src:    `(program (fun main void ()) (fun f void () (expr (invoke void main))))`,
			target: new(*UnsupportedConstructError),
			msg:    "call to entry point main",
		},
		{
			name:   "print of void",
			src:    `(program (fun g void ()) (fun f void () (print (invoke void g))))`,
			target: new(*UnsupportedConstructError),
			msg:    "print of a void value",
		},
		{
			name:   "void value as operand",
			src:    `(program (fun g void ()) (fun f void () (print (binary int + (invoke void g) (const int 1)))))`,
			target: new(*UnsupportedConstructError),
			msg:    "use of a void value",
		},
		{
			name:   "multiple entry points",
			src:    `(program (fun a ^{entry: true} void ()) (fun b ^{entry: true} void ()))`,
			target: new(*UnsupportedConstructError),
			msg:    "multiple entry points: a, b",
		},
		{
			name:   "constant too large",
			src:    `(program (fun f void () (print (const int 2147483648))))`,
			target: new(*UnsupportedConstructError),
			msg:    "does not fit in 32 bits",
		},
		{
			name:   "recursive alias",
			src:    `(program (type t (list t)) (fun f void ((x t))))`,
			target: new(*UnsupportedTypeError),
			msg:    "unsupported type t: recursive type alias",
		},
		{
			name:   "unknown alias",
			src:    `(program (fun f void ((x nope))))`,
			target: new(*UnsupportedTypeError),
			msg:    "unknown type name",
		},
		{
			name:   "void variable",
			src:    `(program (fun f void () (decl void v)))`,
			target: new(*UnsupportedTypeError),
			msg:    "void is not a value type",
		},
		{
			name:   "inconsistent attributes",
			src:    `(program (fun f void ((x int)) (print (var bool x))))`,
			target: new(*TypeMismatchError),
			msg:    "want boolean, got int",
		},
		{
			name:   "missing record field",
			src:    `(program (fun f void () (print (newrecord (record (x int) (y int)) (x (const int 1))))))`,
			target: new(*UnsupportedConstructError),
			msg:    "missing initializer for field y",
		},
		{
			name:   "index of string",
			src:    `(program (fun f void ((s string)) (print (index int (var string s) (const int 0)))))`,
			target: new(*UnsupportedConstructError),
			msg:    "indexing string",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := compileSource(t, test.src)
			be.True(t, out == nil)
			be.Err(t, err, test.msg)
			be.True(t, errors.As(err, test.target))
		})
	}
}

func TestErrorsAreCollectedPerFunction(t *testing.T) {
	_, err := compileSource(t, `(program
		(fun f void () (print (var int x)))
		(fun g void () (print (var int y)))
		(fun h void () (print (const int 1))))`)
	be.Err(t, err, "2 errors occurred")

	var fe *FunctionError
	be.True(t, errors.As(err, &fe))
	be.Equal(t, fe.Function, "f")
	be.Err(t, err, "function g: ")
}
