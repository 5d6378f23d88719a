package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType represents the type of input code fence in a Sexy test
type InputType string

const (
	InputTypeWhileAST InputType = "while-ast"
)

// AssertionType represents the type of assertion code fence in a Sexy test
type AssertionType string

const (
	// AssertionTypeBytecode compares the listing of every emitted function.
	AssertionTypeBytecode AssertionType = "bytecode"
	// AssertionTypeExecute compares program output on the VM and the
	// reference interpreter.
	AssertionTypeExecute AssertionType = "execute"
	// AssertionTypeCompileError expects compilation to fail with a message
	// containing the fence content.
	AssertionTypeCompileError AssertionType = "compile-error"
	// AssertionTypeLocals compares the slot layout, as a Sexy datum.
	AssertionTypeLocals AssertionType = "locals"
)

// Assertion represents a single assertion in a Sexy test
type Assertion struct {
	Type       AssertionType // The type of assertion
	Content    string        // The raw content of the assertion code fence
	Line       int           // Line of the fence in the Markdown document
	ParsedSexy *Node         // Parsed content, for assertions written as Sexy
}

// TestCase represents a complete Sexy test case extracted from Markdown
type TestCase struct {
	Name       string      // The test name from the heading (after "Test: ")
	Input      string      // The raw input code from the input fence
	InputType  InputType   // The type of input fence
	InputNode  *Node       // The parsed input
	Assertions []Assertion // All assertions for this test case
}

// ExtractTestCases parses a Markdown document and extracts all Sexy test cases
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var currentTestCase *TestCase

	finish := func() error {
		if currentTestCase == nil {
			return nil
		}
		if err := validateTestCase(currentTestCase); err != nil {
			return err
		}
		testCases = append(testCases, *currentTestCase)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			currentTestCase = &TestCase{Name: strings.TrimPrefix(headingText, "Test: ")}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := strings.TrimRight(extractCodeBlockContent(n, source), "\n")
			lineNum := getLineNumber(n, source)

			if currentTestCase == nil {
				// Plain code blocks are allowed in prose.
				if language == "" {
					return ast.WalkContinue, nil
				}
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			}

			switch {
			case isInputFence(language):
				if currentTestCase.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, currentTestCase.Name)
				}
				parsed, err := Parse(content)
				if err != nil {
					return ast.WalkStop, fmt.Errorf("line %d: failed to parse input of test '%s': %w", lineNum, currentTestCase.Name, err)
				}
				currentTestCase.Input = content
				currentTestCase.InputType = InputType(language)
				currentTestCase.InputNode = parsed

			case isAssertionFence(language):
				assertion := Assertion{
					Type:    AssertionType(language),
					Content: content,
					Line:    lineNum,
				}
				if assertion.Type == AssertionTypeLocals {
					parsed, err := Parse(content)
					if err != nil {
						return ast.WalkStop, fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", lineNum, currentTestCase.Name, err)
					}
					assertion.ParsedSexy = parsed
				}
				currentTestCase.Assertions = append(currentTestCase.Assertions, assertion)

			case language != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, currentTestCase.Name)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return testCases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeWhileAST)
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeBytecode, AssertionTypeExecute, AssertionTypeCompileError, AssertionTypeLocals:
		return true
	default:
		return false
	}
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	return bytes.Count(source[:startPos], []byte("\n")) + 1
}
