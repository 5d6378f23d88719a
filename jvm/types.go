// Package jvm models the abstract JVM-like target: machine types, stack
// instructions, per-function code units and a stack-depth verifier.
package jvm

import (
	"fmt"
	"strings"
)

// Kind classifies a machine type.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindBoolean
	KindString
	KindList
	KindRecord
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RecordField is one field of a record layout. Offset is the declaration
// index of the field.
type RecordField struct {
	Name   string
	Type   Type
	Offset int
}

// Type is a machine type. Elem is set for lists and arrays, Fields for
// records and Class for objects.
type Type struct {
	Kind   Kind
	Elem   *Type
	Fields []RecordField
	Class  string
}

var (
	Void    = Type{Kind: KindVoid}
	Int     = Type{Kind: KindInt}
	Boolean = Type{Kind: KindBoolean}
	String  = Type{Kind: KindString}

	// Args is the argument vector passed to the entry point.
	Args = ArrayOf(String)
)

func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// RecordOf builds a record layout. Offsets are assigned from the field order.
func RecordOf(fields ...RecordField) Type {
	laid := make([]RecordField, len(fields))
	for i, f := range fields {
		laid[i] = RecordField{Name: f.Name, Type: f.Type, Offset: i}
	}
	return Type{Kind: KindRecord, Fields: laid}
}

// ObjectOf is the receiver type of the generated class.
func ObjectOf(class string) Type {
	return Type{Kind: KindObject, Class: class}
}

// Field returns the named field of a record layout.
func (t Type) Field(name string) (RecordField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return RecordField{}, false
}

// IsReference reports whether values of t live on the heap.
func (t Type) IsReference() bool {
	switch t.Kind {
	case KindString, KindList, KindRecord, KindArray, KindObject:
		return true
	default:
		return false
	}
}

// IsComposite reports whether t is a mutable aggregate with value semantics.
func (t Type) IsComposite() bool {
	return t.Kind == KindList || t.Kind == KindRecord
}

// Width is the number of local slots a value of t occupies.
func (t Type) Width() int {
	if t.Kind == KindVoid {
		return 0
	}
	return 1
}

// Prefix is the opcode prefix for loads, stores and returns of t.
func (t Type) Prefix() string {
	switch t.Kind {
	case KindInt, KindBoolean:
		return "i"
	case KindVoid:
		return ""
	default:
		return "a"
	}
}

// Boxed is the class primitives are wrapped in when stored in a collection.
// Reference types are returned unchanged.
func (t Type) Boxed() string {
	switch t.Kind {
	case KindInt:
		return "java/lang/Integer"
	case KindBoolean:
		return "java/lang/Boolean"
	default:
		return t.ClassName()
	}
}

// ClassName is the internal class name of a reference type.
func (t Type) ClassName() string {
	switch t.Kind {
	case KindString:
		return "java/lang/String"
	case KindList:
		return "java/util/ArrayList"
	case KindRecord:
		return "java/util/HashMap"
	case KindObject:
		return t.Class
	default:
		return ""
	}
}

// Descriptor is the JVM field descriptor of t.
func (t Type) Descriptor() string {
	switch t.Kind {
	case KindVoid:
		return "V"
	case KindInt:
		return "I"
	case KindBoolean:
		return "Z"
	case KindArray:
		return "[" + t.Elem.Descriptor()
	default:
		return "L" + t.ClassName() + ";"
	}
}

// Equal reports structural equality. Record layouts must agree on field
// names, types and order.
func (t Type) Equal(u Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KindList, KindArray:
		return t.Elem.Equal(*u.Elem)
	case KindRecord:
		if len(t.Fields) != len(u.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != u.Fields[i].Name || !t.Fields[i].Type.Equal(u.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindObject:
		return t.Class == u.Class
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindList:
		return "list<" + t.Elem.String() + ">"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindRecord:
		var parts []string
		for _, f := range t.Fields {
			parts = append(parts, f.Name+":"+f.Type.String())
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindObject:
		return t.Class
	default:
		return t.Kind.String()
	}
}
