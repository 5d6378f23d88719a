package codegen

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
	"github.com/strager/whilejvm/logging"
)

// Env is the read-only context shared by every function of a program.
type Env struct {
	Class     string
	Types     *TypeMapper
	Functions map[string]*jvm.Signature
	Verify    bool
}

// Receiver is the type of slot 0 in instance functions.
func (env *Env) Receiver() jvm.Type {
	return jvm.ObjectOf(env.Class)
}

// Signature computes the calling convention of a function declaration. The
// entry point is static and takes the argument vector before its declared
// parameters.
func (env *Env) Signature(decl *lang.FunDecl) (*jvm.Signature, error) {
	sig := &jvm.Signature{Name: decl.Name, Static: decl.EntryPoint}
	if decl.EntryPoint {
		sig.Params = append(sig.Params, jvm.Args)
	}
	for _, p := range decl.Params {
		t, err := env.Types.MapValue(p.Type)
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, t)
	}
	ret, err := env.Types.Map(decl.Return)
	if err != nil {
		return nil, err
	}
	sig.Return = ret
	return sig, nil
}

// funcLowerer holds the per-function state of code generation: the symbol
// table, the label allocator and the instruction buffer.
type funcLowerer struct {
	env    *Env
	decl   *lang.FunDecl
	sig    *jvm.Signature
	syms   *SymbolTable
	labels labelAllocator
	code   []jvm.Instr
}

func (l *funcLowerer) emit(code ...jvm.Instr) {
	l.code = append(l.code, code...)
}

// EmitFunction lowers one function declaration into a code unit with
// resolved branch targets.
func EmitFunction(decl *lang.FunDecl, env *Env) (*jvm.FunctionUnit, error) {
	unit, err := emitFunction(decl, env)
	if err != nil {
		return nil, &FunctionError{Function: decl.Name, Pos: decl.Pos, Err: err}
	}
	return unit, nil
}

func emitFunction(decl *lang.FunDecl, env *Env) (*jvm.FunctionUnit, error) {
	sig, ok := env.Functions[decl.Name]
	if !ok {
		var err error
		if sig, err = env.Signature(decl); err != nil {
			return nil, err
		}
	}

	l := &funcLowerer{env: env, decl: decl, sig: sig, syms: NewSymbolTable()}
	logging.V(5).Infof("emitting %s", sig)

	var err error
	if decl.EntryPoint {
		_, err = l.syms.Reserve("args", jvm.Args)
	} else {
		_, err = l.syms.Reserve("this", env.Receiver())
	}
	if err != nil {
		return nil, err
	}

	first := len(sig.Params) - len(decl.Params)
	seen := mapset.NewThreadUnsafeSet[string]()
	for i, p := range decl.Params {
		if !seen.Add(p.Name) {
			return nil, &DuplicateParameterError{Function: decl.Name, Name: p.Name}
		}
		if _, err := l.syms.Declare(p.Name, sig.Params[first+i]); err != nil {
			return nil, err
		}
	}

	if err := l.lowerBlock(decl.Body); err != nil {
		return nil, err
	}
	if !lang.Terminates(decl.Body) {
		if sig.Return.Kind == jvm.KindVoid {
			l.emit(jvm.Return(jvm.Void))
		} else {
			// Falling off the end of a value-returning function faults.
			l.emit(jvm.Unreachable())
		}
	}

	code, err := ResolveLabels(l.code)
	if err != nil {
		return nil, err
	}

	maxStack, err := jvm.Analyze(code)
	if err != nil {
		if env.Verify {
			return nil, errors.Wrapf(err, "verifying %s", decl.Name)
		}
		logging.Warningf("skipping verification failure in %s: %v", decl.Name, err)
		maxStack = 0
	}

	unit := &jvm.FunctionUnit{
		Name:       decl.Name,
		Sig:        sig,
		EntryPoint: decl.EntryPoint,
		Code:       code,
		Locals:     l.syms.Locals(),
		MaxStack:   maxStack,
		MaxLocals:  l.syms.Size(),
	}
	if logging.V(9) {
		logging.Infof("%s\n%s", unit.Header(), jvm.Listing(code))
	}
	return unit, nil
}
