package codegen

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/whilejvm/jvm"
)

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	this, err := st.Reserve("this", jvm.ObjectOf("c"))
	be.Err(t, err, nil)
	be.Equal(t, this.Slot, 0)

	x, err := st.Declare("x", jvm.Int)
	be.Err(t, err, nil)
	be.Equal(t, x.Slot, 1)

	st.EnterScope()
	inner, err := st.Declare("x", jvm.String)
	be.Err(t, err, nil)
	be.Equal(t, inner.Slot, 2)

	found, err := st.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, found.Slot, 2)
	st.ExitScope()

	found, err = st.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, found.Slot, 1)

	y, err := st.Declare("y", jvm.Boolean)
	be.Err(t, err, nil)
	be.Equal(t, y.Slot, 3)

	_, err = st.Lookup("this")
	var unbound *UnboundVariableError
	be.True(t, errors.As(err, &unbound))

	_, err = st.Declare("v", jvm.Void)
	be.Err(t, err, "cannot allocate a slot for v")

	be.Equal(t, st.Size(), 4)
	be.Equal(t, len(st.Locals()), 4)

	// The outermost scope survives an unbalanced exit.
	st.ExitScope()
	st.ExitScope()
	_, err = st.Lookup("y")
	be.Err(t, err, nil)
}
