package jvm

import "fmt"

// StackError is a stack-discipline violation found by Analyze.
type StackError struct {
	Index int
	Instr string
	Msg   string
}

func (e *StackError) Error() string {
	if e.Instr == "" {
		return fmt.Sprintf("at %d: %s", e.Index, e.Msg)
	}
	return fmt.Sprintf("at %d (%s): %s", e.Index, e.Instr, e.Msg)
}

// Analyze runs a stack-depth dataflow over resolved code and returns the
// maximum operand stack depth. Every instruction must be reached with the
// same depth along all paths, never underflow the stack, and branch only to
// instructions inside the code. Returns must leave exactly their result on
// the stack, and execution may not run off the end.
func Analyze(code []Instr) (int, error) {
	depth := make([]int, len(code))
	for i := range depth {
		depth[i] = -1
	}
	errorf := func(i int, format string, args ...any) error {
		e := &StackError{Index: i, Msg: fmt.Sprintf(format, args...)}
		if i >= 0 && i < len(code) {
			e.Instr = code[i].String()
		}
		return e
	}

	if len(code) == 0 {
		return 0, errorf(0, "empty code")
	}

	maxStack := 0
	work := []int{0}
	depth[0] = 0

	flow := func(from, to, d int) error {
		if to < 0 || to >= len(code) {
			if to == len(code) {
				return errorf(from, "falls off the end of the code")
			}
			return errorf(from, "branch target %d out of range", to)
		}
		switch depth[to] {
		case -1:
			depth[to] = d
			work = append(work, to)
		case d:
		default:
			return errorf(to, "stack depth mismatch: %d and %d", depth[to], d)
		}
		return nil
	}

	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		in := code[i]
		d := depth[i]

		if in.Op == OpLabel {
			return 0, errorf(i, "unresolved label %s", in.Label)
		}
		if in.Op.IsBranch() && in.Label != 0 {
			return 0, errorf(i, "unresolved branch to %s", in.Label)
		}

		pops, pushes := in.StackEffect()
		if d < pops {
			return 0, errorf(i, "stack underflow: need %d, have %d", pops, d)
		}
		if in.Op == OpReturn && d != pops {
			return 0, errorf(i, "return with %d values on the stack", d)
		}
		d = d - pops + pushes
		if d > maxStack {
			maxStack = d
		}

		if in.Op.IsBranch() {
			if err := flow(i, in.Target, d); err != nil {
				return 0, err
			}
		}
		if in.Op.FallsThrough() {
			if err := flow(i, i+1, d); err != nil {
				return 0, err
			}
		}
	}
	return maxStack, nil
}
