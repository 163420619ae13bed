package class

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Normalizer validates and normalizes a value before an authoritative side
// stores it. Proxies never normalize.
type Normalizer func(v any) (any, error)

// Int accepts integer kinds, integral floats and numeric strings.
func Int(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrNormalize, x)
		}
		return n, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v is not integral", ErrNormalize, f)
		}
		return int(f), nil
	}
	return nil, fmt.Errorf("%w: %T is not an int", ErrNormalize, v)
}

// Float accepts any numeric kind and numeric strings.
func Float(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrNormalize, x)
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32:
		return rv.Float(), nil
	}
	return nil, fmt.Errorf("%w: %T is not a float", ErrNormalize, v)
}

// String accepts strings and formats anything else with fmt.
func String(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return fmt.Sprint(v), nil
}

// Bool accepts booleans and the strings understood by strconv.ParseBool.
func Bool(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrNormalize, x)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %T is not a bool", ErrNormalize, v)
}

// OneOf accepts exactly one of options, compared case-insensitively and
// normalized to the declared spelling.
func OneOf(options ...string) Normalizer {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a string", ErrNormalize, v)
		}
		for _, o := range options {
			if strings.EqualFold(o, strings.TrimSpace(s)) {
				return o, nil
			}
		}
		return nil, fmt.Errorf("%w: %q not in %v", ErrNormalize, s, options)
	}
}

// ListOf normalizes every element of a slice with elem.
func ListOf(elem Normalizer) Normalizer {
	return func(v any) (any, error) {
		if v == nil {
			return []any{}, nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: %T is not a list", ErrNormalize, v)
		}
		out := make([]any, rv.Len())
		for i := range out {
			n, err := elem(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
}
