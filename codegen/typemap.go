package codegen

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

// TypeMapper maps source types to machine types, resolving user-defined
// type names through the program's aliases.
type TypeMapper struct {
	aliases map[string]lang.Type
}

func NewTypeMapper(aliases map[string]lang.Type) *TypeMapper {
	if aliases == nil {
		aliases = map[string]lang.Type{}
	}
	return &TypeMapper{aliases: aliases}
}

// Map maps any source type, including void.
func (m *TypeMapper) Map(t lang.Type) (jvm.Type, error) {
	return m.mapType(t, mapset.NewThreadUnsafeSet[string](), true)
}

// MapValue maps the type of something that holds a value: a variable,
// parameter, list element or record field. Void is rejected.
func (m *TypeMapper) MapValue(t lang.Type) (jvm.Type, error) {
	return m.mapType(t, mapset.NewThreadUnsafeSet[string](), false)
}

// expanding holds the alias names currently being mapped; meeting one again
// means the alias refers to itself.
func (m *TypeMapper) mapType(t lang.Type, expanding mapset.Set[string], allowVoid bool) (jvm.Type, error) {
	switch t := t.(type) {
	case lang.VoidType:
		if !allowVoid {
			return jvm.Type{}, &UnsupportedTypeError{Type: t, Reason: "void is not a value type"}
		}
		return jvm.Void, nil
	case lang.BoolType:
		return jvm.Boolean, nil
	case lang.IntType:
		return jvm.Int, nil
	case lang.StringType:
		return jvm.String, nil
	case *lang.ListType:
		elem, err := m.mapType(t.Elem, expanding, false)
		if err != nil {
			return jvm.Type{}, err
		}
		return jvm.ListOf(elem), nil
	case *lang.RecordType:
		fields := make([]jvm.RecordField, 0, len(t.Fields))
		for _, f := range t.Fields {
			ft, err := m.mapType(f.Type, expanding, false)
			if err != nil {
				return jvm.Type{}, err
			}
			fields = append(fields, jvm.RecordField{Name: f.Name, Type: ft})
		}
		return jvm.RecordOf(fields...), nil
	case *lang.NamedType:
		if expanding.Contains(t.Name) {
			return jvm.Type{}, &UnsupportedTypeError{Type: t, Reason: "recursive type alias"}
		}
		target, ok := m.aliases[t.Name]
		if !ok {
			return jvm.Type{}, &UnsupportedTypeError{Type: t, Reason: "unknown type name"}
		}
		expanding.Add(t.Name)
		defer expanding.Remove(t.Name)
		return m.mapType(target, expanding, allowVoid)
	default:
		return jvm.Type{}, &UnsupportedTypeError{Type: t, Reason: "no machine representation"}
	}
}
