package codegen

import (
	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

// CanCast reports whether a value of type from converts to type to, and
// whether doing so needs a convert instruction. Supported casts: identity,
// int or bool to string, and projecting a record onto a subset of its fields
// with identical field types.
func CanCast(from, to jvm.Type) (ok, needsConvert bool) {
	switch {
	case from.Equal(to):
		return true, false
	case to.Kind == jvm.KindString && (from.Kind == jvm.KindInt || from.Kind == jvm.KindBoolean):
		return true, true
	case to.Kind == jvm.KindRecord && from.Kind == jvm.KindRecord:
		for _, tf := range to.Fields {
			ff, ok := from.Field(tf.Name)
			if !ok || !ff.Type.Equal(tf.Type) {
				return false, false
			}
		}
		return true, true
	default:
		return false, false
	}
}

func (l *funcLowerer) VisitCast(e *lang.Cast) (jvm.Type, error) {
	from, err := l.value(e.Operand)
	if err != nil {
		return jvm.Type{}, err
	}
	to, err := l.env.Types.MapValue(e.Type)
	if err != nil {
		return jvm.Type{}, err
	}
	ok, convert := CanCast(from, to)
	if !ok {
		return jvm.Type{}, &UnsupportedCastError{From: lang.TypeOf(e.Operand), To: e.Type, Pos: e.Pos}
	}
	if convert {
		l.emit(jvm.Convert(from, to))
	}
	return to, nil
}
