package lang

import (
	"fmt"
	"strings"
)

// Type is a source-level While type. The set of implementations is closed:
// VoidType, BoolType, IntType, StringType, *ListType, *RecordType and
// *NamedType.
type Type interface {
	String() string
	isType()
}

type VoidType struct{}
type BoolType struct{}
type IntType struct{}
type StringType struct{}

// ListType is a list with elements of type Elem.
type ListType struct {
	Elem Type
}

// Field is one field of a record type.
type Field struct {
	Name string
	Type Type
}

// RecordType lists its fields in declaration order.
type RecordType struct {
	Fields []Field
}

// NamedType refers to a user-defined type declared with a TypeDecl.
type NamedType struct {
	Name string
}

var (
	Void   Type = VoidType{}
	Bool   Type = BoolType{}
	Int    Type = IntType{}
	String Type = StringType{}
)

func (VoidType) isType()    {}
func (BoolType) isType()    {}
func (IntType) isType()     {}
func (StringType) isType()  {}
func (*ListType) isType()   {}
func (*RecordType) isType() {}
func (*NamedType) isType()  {}

func (VoidType) String() string   { return "void" }
func (BoolType) String() string   { return "bool" }
func (IntType) String() string    { return "int" }
func (StringType) String() string { return "string" }

func (t *ListType) String() string {
	return "(list " + t.Elem.String() + ")"
}

func (t *RecordType) String() string {
	var sb strings.Builder
	sb.WriteString("(record")
	for _, f := range t.Fields {
		sb.WriteString(" (")
		sb.WriteString(f.Name)
		sb.WriteString(" ")
		sb.WriteString(f.Type.String())
		sb.WriteString(")")
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *NamedType) String() string { return t.Name }

// FieldIndex returns the declaration index of the named field, or -1.
func (t *RecordType) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// ListOf returns the list type with the given element type.
func ListOf(elem Type) *ListType {
	return &ListType{Elem: elem}
}

// RecordOf builds a record type from fields in declaration order.
func RecordOf(fields ...Field) *RecordType {
	return &RecordType{Fields: fields}
}

// TypesEqual reports whether two types are structurally identical. Named
// types are compared by name only.
func TypesEqual(a, b Type) bool {
	switch a := a.(type) {
	case VoidType, BoolType, IntType, StringType:
		return a == b
	case *ListType:
		b, ok := b.(*ListType)
		return ok && TypesEqual(a.Elem, b.Elem)
	case *RecordType:
		b, ok := b.(*RecordType)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !TypesEqual(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case *NamedType:
		b, ok := b.(*NamedType)
		return ok && a.Name == b.Name
	default:
		return false
	}
}

// Underlying resolves named types through aliases until it reaches a
// structural type. Only the outermost type is resolved; list elements and
// record fields may still be named.
func Underlying(t Type, aliases map[string]Type) (Type, error) {
	seen := map[string]bool{}
	for {
		named, ok := t.(*NamedType)
		if !ok {
			return t, nil
		}
		if seen[named.Name] {
			return nil, fmt.Errorf("recursive type %s", named.Name)
		}
		seen[named.Name] = true
		next, ok := aliases[named.Name]
		if !ok {
			return nil, fmt.Errorf("unknown type %s", named.Name)
		}
		t = next
	}
}
