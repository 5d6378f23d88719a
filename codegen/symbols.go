package codegen

import (
	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

// Symbol is a variable bound to a local slot.
type Symbol struct {
	Name string
	Slot int
	Type jvm.Type
}

// SymbolTable allocates local slots for one function. Slots are handed out
// densely from 0 and never reused; scopes only control which names are
// visible.
type SymbolTable struct {
	scopes []map[string]Symbol
	slots  []jvm.LocalVar
	next   int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []map[string]Symbol{{}}}
}

func (st *SymbolTable) EnterScope() {
	st.scopes = append(st.scopes, map[string]Symbol{})
}

// ExitScope drops the innermost scope. The outermost scope is never dropped.
func (st *SymbolTable) ExitScope() {
	if len(st.scopes) > 1 {
		st.scopes = st.scopes[:len(st.scopes)-1]
	}
}

func (st *SymbolTable) allocate(name string, t jvm.Type) (Symbol, error) {
	if t.Width() == 0 {
		return Symbol{}, &UnsupportedTypeError{Type: lang.Void, Reason: "cannot allocate a slot for " + name}
	}
	sym := Symbol{Name: name, Slot: st.next, Type: t}
	st.next += t.Width()
	st.slots = append(st.slots, jvm.LocalVar{Name: name, Slot: sym.Slot, Type: t})
	return sym, nil
}

// Reserve allocates an implicit slot, such as the receiver, that no source
// name refers to.
func (st *SymbolTable) Reserve(name string, t jvm.Type) (Symbol, error) {
	return st.allocate(name, t)
}

// Declare allocates a fresh slot for name in the innermost scope, shadowing
// any outer binding.
func (st *SymbolTable) Declare(name string, t jvm.Type) (Symbol, error) {
	sym, err := st.allocate(name, t)
	if err != nil {
		return Symbol{}, err
	}
	st.scopes[len(st.scopes)-1][name] = sym
	return sym, nil
}

// Lookup finds the innermost visible binding of name.
func (st *SymbolTable) Lookup(name string) (Symbol, error) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i][name]; ok {
			return sym, nil
		}
	}
	return Symbol{}, &UnboundVariableError{Name: name}
}

// Size is the number of slots allocated so far, i.e. max_locals.
func (st *SymbolTable) Size() int {
	return st.next
}

// Locals lists every allocated slot in allocation order.
func (st *SymbolTable) Locals() []jvm.LocalVar {
	return append([]jvm.LocalVar(nil), st.slots...)
}
