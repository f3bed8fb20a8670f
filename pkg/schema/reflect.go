package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Reflect builds a hand-declared parameter schema from the struct tags of T
// (json names, `jsonschema:"description=..."` annotations). Used by tools that
// declare their schema at the definition site instead of deriving it.
func Reflect[T any]() (map[string]any, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(T))

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode reflected schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode reflected schema: %w", err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// MustReflect is Reflect for package-level schema declarations.
func MustReflect[T any]() map[string]any {
	out, err := Reflect[T]()
	if err != nil {
		panic(err)
	}
	return out
}
