package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/nalgeon/be"

	"github.com/strager/whilejvm/codegen"
	"github.com/strager/whilejvm/interp"
	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/sexy"
	"github.com/strager/whilejvm/value"
	"github.com/strager/whilejvm/vm"
)

func TestSexyAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runTestCase(t, tc)
				})
			}
		})
	}
}

func runTestCase(t *testing.T, tc sexy.TestCase) {
	prog, err := lang.Decode(tc.InputNode, lang.DecodeOptions{EntryPoint: "main"})
	be.Err(t, err, nil)
	class, compileErr := codegen.Compile(prog, codegen.DefaultOptions("test"))

	for _, assertion := range tc.Assertions {
		name := fmt.Sprintf("%s_line_%d", assertion.Type, assertion.Line)
		t.Run(name, func(t *testing.T) {
			switch assertion.Type {
			case sexy.AssertionTypeCompileError:
				be.Err(t, compileErr, assertion.Content)

			case sexy.AssertionTypeBytecode:
				be.Err(t, compileErr, nil)
				assertText(t, assertion.Content, jvm.Disassemble(class))

			case sexy.AssertionTypeLocals:
				be.Err(t, compileErr, nil)
				assertText(t, assertion.ParsedSexy.String(), localsNode(class).String())

			case sexy.AssertionTypeExecute:
				be.Err(t, compileErr, nil)
				var vmOut bytes.Buffer
				vmErr := vm.Run(class, nil, &vmOut)
				assertText(t, assertion.Content, transcript(t, vmOut.String(), vmErr))

				var refOut bytes.Buffer
				refErr := interp.Run(prog, nil, &refOut)
				assertText(t, assertion.Content, transcript(t, refOut.String(), refErr))

			default:
				t.Fatalf("unknown assertion type %s", assertion.Type)
			}
		})
	}
}

// transcript is the program output followed by a "fault: KIND" line when
// the run ended in a runtime fault.
func transcript(t *testing.T, out string, err error) string {
	t.Helper()
	var fault *value.Fault
	if errors.As(err, &fault) {
		return out + "fault: " + fault.Kind.String() + "\n"
	}
	be.Err(t, err, nil)
	return out
}

// localsNode renders slot layouts as (locals (f (slot name "type")...)...).
func localsNode(class *jvm.Program) *sexy.Node {
	root := sexy.NewList(sexy.NewSymbol("locals"))
	for _, f := range class.Functions {
		fun := sexy.NewList(sexy.NewSymbol(f.Name))
		for _, l := range f.Locals {
			fun.Items = append(fun.Items, sexy.NewList(
				sexy.NewInteger(int64(l.Slot)),
				sexy.NewSymbol(l.Name),
				sexy.NewString(l.Type.String()),
			))
		}
		root.Items = append(root.Items, fun)
	}
	return root
}

func assertText(t *testing.T, want, got string) {
	t.Helper()
	want = strings.TrimRight(want, "\n") + "\n"
	got = strings.TrimRight(got, "\n") + "\n"
	if want == got {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath("expected"), want, got)
	t.Errorf("mismatch:\n%s", gotextdiff.ToUnified("expected", "actual", want, edits))
}
