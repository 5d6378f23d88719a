package value

import "fmt"

// FaultKind classifies runtime faults so that the interpreter and the VM can
// be compared without matching message text.
type FaultKind int

const (
	FaultDivideByZero FaultKind = iota + 1
	FaultIndexOutOfRange
	FaultMissingReturn
	FaultUninitialized
	FaultCallDepth
)

func (k FaultKind) String() string {
	switch k {
	case FaultDivideByZero:
		return "division by zero"
	case FaultIndexOutOfRange:
		return "index out of range"
	case FaultMissingReturn:
		return "missing return"
	case FaultUninitialized:
		return "uninitialized variable"
	case FaultCallDepth:
		return "call depth exceeded"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

// MaxCallDepth bounds recursion in both executors.
const MaxCallDepth = 1000

// Fault is a runtime error raised by a running While program.
type Fault struct {
	Kind     FaultKind
	Function string
	Detail   string
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("runtime fault in %s: %s", f.Function, f.Kind)
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}

// Faultf builds a Fault with a formatted detail message.
func Faultf(kind FaultKind, function, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Function: function, Detail: fmt.Sprintf(format, args...)}
}

// Index checks i against a list and returns the element slot.
func Index(function string, l *List, i Int) (int, error) {
	if i < 0 || int(i) >= len(l.Elems) {
		return 0, Faultf(FaultIndexOutOfRange, function, "index %d, length %d", i, len(l.Elems))
	}
	return int(i), nil
}

// Div and Rem wrap like Java int arithmetic and fault on a zero divisor.
func Div(function string, a, b Int) (Int, error) {
	if b == 0 {
		return 0, &Fault{Kind: FaultDivideByZero, Function: function}
	}
	return a / b, nil
}

func Rem(function string, a, b Int) (Int, error) {
	if b == 0 {
		return 0, &Fault{Kind: FaultDivideByZero, Function: function}
	}
	return a % b, nil
}
