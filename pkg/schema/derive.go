// Package schema derives JSON-Schema parameter descriptions for tools and
// validates tool-call arguments against them.
package schema

import (
	"encoding"
	"reflect"
	"regexp"
	"strings"
)

// JSON Schema primitive names produced by the deriver.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Param is one declared parameter of a tool method.
type Param struct {
	Name string
	// Type is the declared Go type. Nil means "not annotated" and maps to string.
	Type       reflect.Type
	HasDefault bool
}

// Derived is the deriver output for one tool method.
type Derived struct {
	Description string
	Parameters  map[string]any
}

// annotationPattern matches "name: description" and ":param name: description".
var annotationPattern = regexp.MustCompile(`^(?::param\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	byteSliceType     = reflect.TypeOf([]byte(nil))
)

// Derive builds the parameter schema and short description for a method from
// its declared parameters and documentation block.
//
// The documentation block is a one-line summary followed by optional
// "param: description" annotations. Parameters without a default are listed in
// "required", in declaration order; when none are required the key is omitted.
func Derive(params []Param, doc string) Derived {
	summaryIdx, summary := summaryLine(doc)
	notes := annotations(doc, summaryIdx)

	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		prop := map[string]any{"type": TypeOf(p.Type)}
		if desc, ok := notes[p.Name]; ok {
			prop["description"] = desc
		}
		properties[p.Name] = prop
		if !p.HasDefault {
			required = append(required, p.Name)
		}
	}

	parameters := map[string]any{
		"type":       TypeObject,
		"properties": properties,
	}
	if len(required) > 0 {
		parameters["required"] = required
	}
	return Derived{Description: summary, Parameters: parameters}
}

// TypeOf maps a declared Go type to a JSON Schema primitive. Unknown and
// missing types degrade to string.
func TypeOf(t reflect.Type) string {
	if t == nil {
		return TypeString
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == byteSliceType || t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
		return TypeString
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Bool:
		return TypeBoolean
	case reflect.Struct, reflect.Map:
		return TypeObject
	case reflect.Slice, reflect.Array:
		return TypeArray
	default:
		return TypeString
	}
}

func summaryLine(doc string) (int, string) {
	for i, line := range strings.Split(doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return i, line
		}
	}
	return -1, ""
}

func annotations(doc string, skip int) map[string]string {
	notes := map[string]string{}
	for i, line := range strings.Split(doc, "\n") {
		if i == skip {
			continue
		}
		m := annotationPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if desc == "" {
			continue
		}
		notes[m[1]] = desc
	}
	return notes
}
