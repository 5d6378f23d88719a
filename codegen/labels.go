package codegen

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/strager/whilejvm/jvm"
)

// labelAllocator hands out function-unique labels.
type labelAllocator struct {
	last jvm.Label
}

func (a *labelAllocator) New() jvm.Label {
	a.last++
	return a.last
}

// ResolveLabels replaces symbolic branch targets with instruction indices and
// drops the label pseudo-instructions. The first pass records where each
// label lands, counting only real instructions; the second rewrites branches.
func ResolveLabels(code []jvm.Instr) ([]jvm.Instr, error) {
	positions := make(map[jvm.Label]int)
	placed := mapset.NewThreadUnsafeSet[jvm.Label]()
	referenced := mapset.NewThreadUnsafeSet[jvm.Label]()
	n := 0
	for _, in := range code {
		switch {
		case in.Op == jvm.OpLabel:
			if _, ok := positions[in.Label]; ok {
				return nil, &UnresolvedLabelError{Label: in.Label, Reason: "placed more than once"}
			}
			positions[in.Label] = n
			placed.Add(in.Label)
		case in.Op.IsBranch():
			referenced.Add(in.Label)
			n++
		default:
			n++
		}
	}

	undefined := referenced.Difference(placed).ToSlice()
	if len(undefined) > 0 {
		sort.Slice(undefined, func(i, j int) bool { return undefined[i] < undefined[j] })
		return nil, &UnresolvedLabelError{Label: undefined[0], Reason: "never placed"}
	}

	out := make([]jvm.Instr, 0, n)
	for _, in := range code {
		if in.Op == jvm.OpLabel {
			continue
		}
		if in.Op.IsBranch() {
			target := positions[in.Label]
			if target >= n {
				return nil, &UnresolvedLabelError{Label: in.Label, Reason: "placed past the end of the code"}
			}
			in.Target = target
			in.Label = 0
		}
		out = append(out, in)
	}
	return out, nil
}
