// Package elemcheck provides a runtime layout check standing in for a
// compile-time "plain old data" trait that Go lacks: a
// type T stored in a journal or slot store must be fixed-size, trivially
// copyable, safe to observe under any bit pattern, and free of embedded
// indirection (no pointers, strings, slices, maps, channels, funcs, or
// interfaces anywhere in its layout).
package elemcheck

import (
	"fmt"
	"reflect"
)

// Validate rejects T if its layout contains indirection. It is called once
// at journal/slot-store construction time (§7 InvalidType: fatal, refuse
// to construct).
func Validate[T any]() error {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is itself an interface type instantiated with a nil value;
		// reflect.TypeOf can't see the static type, so fall back to the
		// generic type description via reflect.TypeFor (Go 1.22+).
		t = reflect.TypeFor[T]()
	}
	if err := checkType(t, make(map[reflect.Type]bool)); err != nil {
		return fmt.Errorf("elemcheck: type %s is not a valid journal/slot element: %w", t, err)
	}
	return nil
}

func checkType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil

	case reflect.Array:
		return checkType(t.Elem(), seen)

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkType(f.Type, seen); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil

	case reflect.Ptr, reflect.UnsafePointer, reflect.String, reflect.Slice,
		reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return fmt.Errorf("kind %s contains indirection, not a bitwise-copyable element", t.Kind())

	default:
		return fmt.Errorf("unsupported kind %s", t.Kind())
	}
}
