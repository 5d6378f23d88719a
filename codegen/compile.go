// Package codegen lowers typed While programs into stack-machine code units.
//
// Each function is compiled independently: it gets a fresh symbol table,
// label allocator and instruction buffer, and the only shared state is the
// read-only Env holding aliases and function signatures.
package codegen

import (
	"sort"
	"strings"

	"github.com/blang/semver"
	"github.com/hashicorp/go-multierror"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/logging"
)

// Options configure Compile.
type Options struct {
	// Name is the generated class name, usually derived from the source file.
	Name    string
	Version semver.Version
	Verify  bool
}

// DefaultOptions targets class file version 49.0 with verification on.
func DefaultOptions(name string) Options {
	return Options{Name: name, Version: semver.Version{Major: 49}, Verify: true}
}

// NewEnv builds the signature environment of a program. It fails when a
// function name is declared twice, when more than one function is marked as
// the entry point, or when a signature mentions an unsupported type.
func NewEnv(prog *lang.Program, opts Options) (*Env, error) {
	env := &Env{
		Class:     opts.Name,
		Types:     NewTypeMapper(prog.Aliases()),
		Functions: map[string]*jvm.Signature{},
		Verify:    opts.Verify,
	}

	var errs *multierror.Error
	var entries []string
	for _, decl := range prog.Functions() {
		if _, ok := env.Functions[decl.Name]; ok {
			errs = multierror.Append(errs, &DuplicateFunctionError{Name: decl.Name, Pos: decl.Pos})
			continue
		}
		if decl.EntryPoint {
			entries = append(entries, decl.Name)
		}
		sig, err := env.Signature(decl)
		if err != nil {
			errs = multierror.Append(errs, &FunctionError{Function: decl.Name, Pos: decl.Pos, Err: err})
			continue
		}
		env.Functions[decl.Name] = sig
	}
	if len(entries) > 1 {
		sort.Strings(entries)
		errs = multierror.Append(errs, &UnsupportedConstructError{
			What: "multiple entry points: " + strings.Join(entries, ", "),
		})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return env, nil
}

// Compile lowers every function of prog in declaration order. Failures are
// collected across functions; if any function fails no program is returned.
func Compile(prog *lang.Program, opts Options) (*jvm.Program, error) {
	env, err := NewEnv(prog, opts)
	if err != nil {
		return nil, err
	}

	out := &jvm.Program{Name: opts.Name, Version: opts.Version}
	var errs *multierror.Error
	for _, decl := range prog.Functions() {
		unit, err := EmitFunction(decl, env)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		out.Functions = append(out.Functions, unit)
	}
	if err := errs.ErrorOrNil(); err != nil {
		logging.V(5).Infof("compiling %s failed: %d errors", opts.Name, len(errs.Errors))
		return nil, err
	}

	logging.V(5).Infof("compiled %s: %d functions", opts.Name, len(out.Functions))
	return out, nil
}
