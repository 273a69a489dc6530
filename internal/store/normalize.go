package store

import "reflect"

// Undefined is the explicit "no value" marker callers may place inside
// free-form document fields. The backend rejects anything that is not plain
// JSON, so every Undefined is rewritten to null before transmission. It also
// marshals to null on its own, which keeps struct entities safe without a
// separate pass.
var Undefined = undefined{}

type undefined struct{}

func (undefined) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Normalize rewrites every Undefined value and every typed-nil value inside v
// to an explicit null, recursively through maps and slices. Normalizing an
// already-normalized value is a no-op.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case undefined:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}
