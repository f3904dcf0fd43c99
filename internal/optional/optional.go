// Package optional models request fields that can be omitted, explicitly null, or set.
package optional

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/bytedance/sonic"
)

// Field distinguishes "key absent" from "key present with null" from "key present with a value".
// The zero value is absent. Decoding a JSON object into a struct of Fields only touches the
// keys that appear in the payload, which is what marks them Set.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// HasValue reports whether the field was sent with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr returns nil for absent or null fields.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}

// Or returns the value when present, def otherwise.
func (f Field[T]) Or(def T) T {
	if f.HasValue() {
		return f.Value
	}
	return def
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Null = true
		return nil
	}
	return sonic.Unmarshal(b, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return sonic.Marshal(f.Value)
}

// Canonicalize rewrites the top-level keys of a JSON object so that every synonym is
// renamed to its canonical key. aliases maps synonym -> canonical. When both the canonical
// key and a synonym are present the canonical key wins.
func Canonicalize(body []byte, aliases map[string]string) ([]byte, error) {
	if len(aliases) == 0 {
		return body, nil
	}

	var obj map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &obj); err != nil {
		return nil, err
	}

	changed := false
	for _, synonym := range slices.Sorted(maps.Keys(aliases)) {
		canonical := aliases[synonym]
		raw, ok := obj[synonym]
		if !ok {
			continue
		}
		delete(obj, synonym)
		changed = true
		if _, exists := obj[canonical]; exists {
			continue
		}
		obj[canonical] = raw
	}

	if !changed {
		return body, nil
	}
	return sonic.Marshal(obj)
}
