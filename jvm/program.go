package jvm

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// Signature is the calling convention of a generated method. Static methods
// have no receiver; every other method takes the class instance in slot 0.
type Signature struct {
	Name   string
	Params []Type
	Return Type
	Static bool
}

// Descriptor is the JVM method descriptor, e.g. (ILjava/lang/String;)V.
func (s *Signature) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range s.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(s.Return.Descriptor())
	return sb.String()
}

func (s *Signature) String() string {
	return s.Name + s.Descriptor()
}

// LocalVar describes one local slot, as in a LocalVariableTable.
type LocalVar struct {
	Name string
	Slot int
	Type Type
}

// FunctionUnit is the compiled code of one function. Branch targets in Code
// are resolved instruction indices.
type FunctionUnit struct {
	Name       string
	Sig        *Signature
	EntryPoint bool
	Code       []Instr
	Locals     []LocalVar
	MaxStack   int
	MaxLocals  int
}

// Program is one generated class.
type Program struct {
	Name      string
	Version   semver.Version
	Functions []*FunctionUnit
}

// Function returns the named unit, or nil.
func (p *Program) Function(name string) *FunctionUnit {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EntryPoint returns the unit marked as the program entry point, or nil.
func (p *Program) EntryPoint() *FunctionUnit {
	for _, f := range p.Functions {
		if f.EntryPoint {
			return f
		}
	}
	return nil
}

// ClassVersion formats the version as major.minor, the way class files
// record it.
func (p *Program) ClassVersion() string {
	return fmt.Sprintf("%d.%d", p.Version.Major, p.Version.Minor)
}

// Header is the one-line method summary used in listings.
func (f *FunctionUnit) Header() string {
	var flags []string
	if f.Sig.Static {
		flags = append(flags, "static")
	}
	if f.EntryPoint {
		flags = append(flags, "entry")
	}
	flags = append(flags, fmt.Sprintf("stack=%d", f.MaxStack), fmt.Sprintf("locals=%d", f.MaxLocals))
	return fmt.Sprintf("method %s %s", f.Sig, strings.Join(flags, " "))
}

// Disassemble renders the whole program as a human-readable listing.
func Disassemble(p *Program) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s version %s\n", p.Name, p.ClassVersion())
	for _, f := range p.Functions {
		fmt.Fprintf(&sb, "\n%s\n", f.Header())
		for _, line := range strings.Split(strings.TrimSuffix(Listing(f.Code), "\n"), "\n") {
			if line != "" {
				fmt.Fprintf(&sb, "  %s\n", line)
			}
		}
	}
	return sb.String()
}
