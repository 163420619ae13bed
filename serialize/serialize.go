// Package serialize encodes values to a transport safe JSON text and decodes
// them back, reconstructing custom types through registered revivers.
//
// Plain scalars, slices and string-keyed maps use a direct structural
// encoding. Values implementing Taggable are encoded as a tagged record
//
//	{"__type__": "<tag>", ...payload}
//
// and decoding hands every tagged record whose tag has a registered Reviver
// to that reviver. Records with an unknown tag decode as plain maps.
package serialize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TypeKey is the record key carrying a tagged value's type tag.
const TypeKey = "__type__"

var (
	// ErrInvalidText is returned when decoding text that is not valid JSON.
	ErrInvalidText = errors.New("serialize: invalid encoded text")
	// ErrEmptyTag is returned when a Taggable reports an empty tag.
	ErrEmptyTag = errors.New("serialize: empty type tag")
)

// Taggable is implemented by custom types that encode as tagged records.
type Taggable interface {
	// TypeTag names the reviver responsible for decoding the record.
	TypeTag() string
	// TagPayload returns the record fields besides the tag.
	TagPayload() map[string]any
}

// Reviver reconstructs a value from a decoded tagged record. The record
// still contains the TypeKey entry. Returning (nil, nil) is a valid result.
type Reviver func(record map[string]any) (any, error)

// Serializer holds a reviver registry. It is safe for concurrent use.
type Serializer struct {
	mu       sync.RWMutex
	revivers map[string]Reviver
}

// New returns a Serializer with an empty reviver registry.
func New() *Serializer {
	return &Serializer{revivers: make(map[string]Reviver)}
}

// Default is the process wide serializer. Runtimes clone it so revivers
// registered here are visible on both sides.
var Default = New()

// AddReviver registers fn for tag on the Default serializer.
func AddReviver(tag string, fn Reviver) { Default.AddReviver(tag, fn) }

// AddReviver registers (or replaces) the reviver for tag.
func (s *Serializer) AddReviver(tag string, fn Reviver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revivers[tag] = fn
}

// RemoveReviver drops the reviver for tag if present.
func (s *Serializer) RemoveReviver(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.revivers, tag)
}

// Reviver returns the reviver registered for tag.
func (s *Serializer) Reviver(tag string) (Reviver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.revivers[tag]
	return fn, ok
}

// Clone returns an independent Serializer starting with a copy of the
// receiver's revivers.
func (s *Serializer) Clone() *Serializer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := New()
	for k, v := range s.revivers {
		c.revivers[k] = v
	}
	return c
}

// Encode returns the JSON text for v.
func (s *Serializer) Encode(v any) (string, error) {
	prepared, err := s.prepare(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("serialize: encode: %w", err)
	}
	return string(b), nil
}

// Decode parses text and revives tagged records.
func (s *Serializer) Decode(text string) (any, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidText, truncate(text, 64))
	}
	return s.fromResult(gjson.Parse(text))
}

func (s *Serializer) prepare(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Taggable:
		if isNilPointer(x) {
			return nil, nil
		}
		return s.encodeTagged(x)
	case json.Marshaler:
		return x, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			p, err := s.prepare(item)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			p, err := s.prepare(item)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32:
		return floatText(rv.Float(), 32), nil
	case reflect.Float64:
		return floatText(rv.Float(), 64), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			p, err := s.prepare(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, nil
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			p, err := s.prepare(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = p
		}
		return out, nil
	}
	return v, nil
}

func (s *Serializer) encodeTagged(t Taggable) (json.RawMessage, error) {
	tag := t.TypeTag()
	if tag == "" {
		return nil, ErrEmptyTag
	}
	payload, err := s.prepare(t.TagPayload())
	if err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize: encode %s payload: %w", tag, err)
	}
	raw, err = sjson.SetBytes(raw, TypeKey, tag)
	if err != nil {
		return nil, fmt.Errorf("serialize: tag %s payload: %w", tag, err)
	}
	return json.RawMessage(raw), nil
}

func (s *Serializer) fromResult(r gjson.Result) (any, error) {
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.False:
		return false, nil
	case gjson.True:
		return true, nil
	case gjson.String:
		return r.Str, nil
	case gjson.Number:
		// Only a bare integer literal decodes as int.
		if n, err := strconv.ParseInt(r.Raw, 10, 0); err == nil {
			return int(n), nil
		}
		return r.Num, nil
	}

	var walkErr error
	if r.IsArray() {
		out := []any{}
		r.ForEach(func(_, item gjson.Result) bool {
			v, err := s.fromResult(item)
			if err != nil {
				walkErr = err
				return false
			}
			out = append(out, v)
			return true
		})
		return out, walkErr
	}

	out := map[string]any{}
	r.ForEach(func(key, item gjson.Result) bool {
		v, err := s.fromResult(item)
		if err != nil {
			walkErr = err
			return false
		}
		out[key.Str] = v
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	tag, ok := out[TypeKey].(string)
	if !ok {
		return out, nil
	}
	fn, ok := s.Reviver(tag)
	if !ok {
		return out, nil
	}
	v, err := fn(out)
	if err != nil {
		return nil, fmt.Errorf("serialize: revive %s: %w", tag, err)
	}
	return v, nil
}

// floatText keeps a decimal point on integral floats so they decode as
// float64 rather than int.
func floatText(f float64, bits int) any {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= 1e21 {
		return f
	}
	return json.RawMessage(strconv.FormatFloat(f, 'f', -1, bits) + ".0")
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
