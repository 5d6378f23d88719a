package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/nalgeon/be"
	"github.com/pkg/errors"

	"github.com/strager/whilejvm/value"
)

const hello = `(program (fun main void () (print (const string "hello"))))`

// whilec runs the root command against a fresh source file and returns its
// standard output.
func whilec(t *testing.T, src string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.while")
	be.Err(t, os.WriteFile(path, []byte(src), 0o644), nil)

	cmd := newWhilecCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, path))
	err := cmd.Execute()
	return out.String(), err
}

func TestProgramName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"hello.while", "hello"},
		{"dir/sub/hello.while", "hello"},
		{"hello", "hello"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			be.Equal(t, ProgramName(test.path), test.expected)
		})
	}
}

func TestBuildText(t *testing.T) {
	out, err := whilec(t, hello, "build")
	be.Err(t, err, nil)
	be.Equal(t, out, strings.Join([]string{
		"class hello version 49.0",
		"",
		"method main([Ljava/lang/String;)V static entry stack=1 locals=1",
		`  0: ldc "hello"`,
		"  1: print string",
		"  2: return",
		"",
	}, "\n"))
}

func TestBuildYAML(t *testing.T) {
	out, err := whilec(t, hello, "build", "--format", "yaml")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "class: hello\nversion: \"49.0\"\n"))
	be.True(t, strings.Contains(out, "descriptor: ([Ljava/lang/String;)V"))
	be.True(t, strings.Contains(out, "entryPoint: true"))
	be.True(t, strings.Contains(out, "- print string"))
}

func TestBuildUnknownFormat(t *testing.T) {
	_, err := whilec(t, hello, "build", "--format", "xml")
	be.Err(t, err, `unknown format "xml"`)
}

func TestCheck(t *testing.T) {
	out, err := whilec(t, hello, "check")
	be.Err(t, err, nil)
	be.True(t, strings.HasSuffix(out, "hello.while: ok, 1 functions, 3 instructions\n"))
}

func TestRunAndInterp(t *testing.T) {
	for _, command := range []string{"run", "interp"} {
		t.Run(command, func(t *testing.T) {
			out, err := whilec(t, hello, command)
			be.Err(t, err, nil)
			be.Equal(t, out, "hello\n")
		})
	}
}

func TestRunFault(t *testing.T) {
	out, err := whilec(t, `(program (fun main void ()
		(print (const int 1))
		(print (binary int / (const int 1) (const int 0)))))`, "run")
	be.Equal(t, out, "1\n")
	var fault *value.Fault
	be.True(t, errors.As(err, &fault))
	be.Equal(t, fault.Kind, value.FaultDivideByZero)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.yaml")
	be.Err(t, os.WriteFile(settings, []byte("classVersion: \"52.0\"\nentryPoint: start\n"), 0o644), nil)

	out, err := whilec(t, `(program (fun start void () (print (const int 7))))`, "--config", settings, "build")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "class hello version 52.0\n"))
	be.True(t, strings.Contains(out, "method start([Ljava/lang/String;)V static entry"))

	_, err = whilec(t, hello, "--config", filepath.Join(dir, "missing.yaml"), "check")
	be.Err(t, err, "reading")
}

func TestCompileErrorsAreReported(t *testing.T) {
	_, err := whilec(t, `(program
		(fun f void () (print (var int a)))
		(fun main void () (print (var int b))))`, "check")
	be.Err(t, err, "2 errors occurred")

	color.NoColor = true
	var stderr bytes.Buffer
	reportError(&stderr, err)
	msg := stderr.String()
	be.True(t, strings.HasPrefix(msg, "error: 2 errors occurred:\n    1) function f: "))
	be.True(t, strings.Contains(msg, "\n    2) function main: "))
	be.True(t, strings.Contains(msg, "unbound variable b"))
}

func TestErrorMessage(t *testing.T) {
	single := multierror.Append(nil, errors.New("only"))
	be.Equal(t, errorMessage(single), "only")
	be.Equal(t, errorMessage(errors.New("plain")), "plain")

	color.NoColor = true
	var stderr bytes.Buffer
	reportError(&stderr, &value.Fault{Kind: value.FaultMissingReturn, Function: "f"})
	be.Equal(t, stderr.String(), "fault: runtime fault in f: missing return\n")
}
