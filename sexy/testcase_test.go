package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Printing

Some prose with a plain block:

` + fence + `
not a test
` + fence + `

## Test: print constant
` + fence + `while-ast
(program (fun main ^{entry: true} void () (print (const int 1))))
` + fence + `
` + fence + `execute
1
` + fence + `

## Test: print string
` + fence + `while-ast
(program (fun main ^{entry: true} void () (print (const string "hi"))))
` + fence + `
` + fence + `execute
hi
` + fence + `
` + fence + `bytecode
func main static ([Ljava/lang/String;)V
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "print constant")
	be.Equal(t, tc1.InputType, InputTypeWhileAST)
	be.Equal(t, tc1.InputNode.Head(), "program")
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeExecute)
	be.Equal(t, tc1.Assertions[0].Content, "1")

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "print string")
	be.Equal(t, len(tc2.Assertions), 2)
	be.Equal(t, tc2.Assertions[1].Type, AssertionTypeBytecode)
	be.True(t, strings.HasPrefix(tc2.Assertions[1].Content, "func main static"))
}

func TestExtractTestCases_LocalsAssertionIsParsed(t *testing.T) {
	markdown := `## Test: locals
` + fence + `while-ast
(program)
` + fence + `
` + fence + `locals
(main (args 0) (x 1))
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	assertion := testCases[0].Assertions[0]
	be.Equal(t, assertion.Type, AssertionTypeLocals)
	be.Equal(t, assertion.ParsedSexy.String(), "(main (args 0) (x 1))")
	be.Equal(t, assertion.Line, 6)
}

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		msg      string
	}{
		{
			name:     "no input",
			markdown: "## Test: empty\n" + fence + "execute\n1\n" + fence,
			msg:      "test 'empty' has no input fence",
		},
		{
			name:     "no assertion",
			markdown: "## Test: lonely\n" + fence + "while-ast\n(program)\n" + fence,
			msg:      "test 'lonely' has no assertion fences",
		},
		{
			name:     "fence outside test",
			markdown: "# Title\n" + fence + "execute\n1\n" + fence,
			msg:      "execute fence found outside of test case",
		},
		{
			name:     "unknown fence",
			markdown: "## Test: odd\n" + fence + "while-ast\n(program)\n" + fence + "\n" + fence + "lisp\n1\n" + fence,
			msg:      "unknown fence language 'lisp' in test 'odd'",
		},
		{
			name: "two inputs",
			markdown: "## Test: twice\n" + fence + "while-ast\n(program)\n" + fence + "\n" +
				fence + "while-ast\n(program)\n" + fence,
			msg: "multiple input fences found in test 'twice'",
		},
		{
			name:     "bad input",
			markdown: "## Test: broken\n" + fence + "while-ast\n(program\n" + fence,
			msg:      "failed to parse input of test 'broken'",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.msg))
		})
	}
}
