// Package value is the runtime value model shared by the reference
// interpreter and the stack VM.
package value

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a runtime value: Int, Bool, Str, *List, *Record, *Object or
// *Array.
type Value interface {
	isValue()
}

type Int int32
type Bool bool
type Str string

// List is a mutable list. Lists have value semantics at the language level,
// so anything that copies a list out of a variable must Clone it.
type List struct {
	Elems []Value
}

// Field is one named record slot.
type Field struct {
	Name  string
	Value Value
}

// Record holds its fields in layout order.
type Record struct {
	Fields []Field
}

// Object is an instance of the generated class, used as call receiver.
type Object struct {
	Class string
}

// Array is the argument vector handed to the entry point.
type Array struct {
	Elems []string
}

func (Int) isValue()     {}
func (Bool) isValue()    {}
func (Str) isValue()     {}
func (*List) isValue()   {}
func (*Record) isValue() {}
func (*Object) isValue() {}
func (*Array) isValue()  {}

// Get returns the named field's value.
func (r *Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the named field's value.
func (r *Record) Set(name string, v Value) bool {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = v
			return true
		}
	}
	return false
}

// Format renders v the way print writes it: ints in decimal, booleans as
// true/false, strings raw, lists as [a, b] and records as {x:1,y:true}.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case Str:
		sb.WriteString(string(v))
	case *List:
		sb.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case *Record:
		sb.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			format(sb, f.Value)
		}
		sb.WriteByte('}')
	case *Object:
		sb.WriteString(v.Class)
	case *Array:
		sb.WriteString("[" + strings.Join(v.Elems, ", ") + "]")
	case nil:
		sb.WriteString("null")
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}

// Equal is structural equality.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Int, Bool, Str:
		return a == b
	case *List:
		b, ok := b.(*List)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case *Record:
		b, ok := b.(*Record)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}
		return true
	case *Object:
		return a == b
	default:
		return false
	}
}

// Clone deep-copies lists and records. Immutable values are returned as is.
func Clone(v Value) Value {
	switch v := v.(type) {
	case *List:
		elems := make([]Value, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Clone(e)
		}
		return &List{Elems: elems}
	case *Record:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Field{Name: f.Name, Value: Clone(f.Value)}
		}
		return &Record{Fields: fields}
	default:
		return v
	}
}

// Project builds a record holding only the named fields of r, in the given
// order.
func Project(r *Record, names []string) (*Record, error) {
	out := &Record{}
	for _, name := range names {
		v, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("record has no field %s", name)
		}
		out.Fields = append(out.Fields, Field{Name: name, Value: Clone(v)})
	}
	return out, nil
}

// Append concatenates two strings or two lists into a fresh value.
func Append(a, b Value) (Value, error) {
	switch a := a.(type) {
	case Str:
		b, ok := b.(Str)
		if !ok {
			return nil, fmt.Errorf("cannot append %T to string", b)
		}
		return a + b, nil
	case *List:
		b, ok := b.(*List)
		if !ok {
			return nil, fmt.Errorf("cannot append %T to list", b)
		}
		elems := make([]Value, 0, len(a.Elems)+len(b.Elems))
		for _, e := range a.Elems {
			elems = append(elems, Clone(e))
		}
		for _, e := range b.Elems {
			elems = append(elems, Clone(e))
		}
		return &List{Elems: elems}, nil
	default:
		return nil, fmt.Errorf("cannot append to %T", a)
	}
}

// Length is the length of a list, or of a string in UTF-16 code units.
func Length(v Value) (Int, error) {
	switch v := v.(type) {
	case Str:
		return Int(len(utf16.Encode([]rune(string(v))))), nil
	case *List:
		return Int(len(v.Elems)), nil
	default:
		return 0, fmt.Errorf("length of %T", v)
	}
}
