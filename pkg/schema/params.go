package schema

import (
	"reflect"
	"strings"
)

// ParamsOf returns the declared parameter list of the argument struct T.
func ParamsOf[T any]() []Param {
	return ParamsFromType(reflect.TypeOf((*T)(nil)).Elem())
}

// ParamsFromType lists the fields of an argument struct as parameters, in
// field order. The json tag supplies the name; a field has a default when its
// json tag carries omitempty or it has a `default` tag. Non-struct types have
// no parameters.
func ParamsFromType(t reflect.Type) []Param {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	params := make([]Param, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		_, hasDefault := field.Tag.Lookup("default")
		params = append(params, Param{
			Name:       name,
			Type:       field.Type,
			HasDefault: hasDefault || hasOption(opts, "omitempty"),
		})
	}
	return params
}

func hasOption(opts, want string) bool {
	for _, opt := range strings.Split(opts, ",") {
		if opt == want {
			return true
		}
	}
	return false
}

// declaredTypes maps type names used in tool manifests to Go types.
var declaredTypes = map[string]reflect.Type{
	"int":     reflect.TypeOf(int64(0)),
	"integer": reflect.TypeOf(int64(0)),
	"float":   reflect.TypeOf(float64(0)),
	"number":  reflect.TypeOf(float64(0)),
	"bool":    reflect.TypeOf(false),
	"boolean": reflect.TypeOf(false),
	"dict":    reflect.TypeOf(map[string]any(nil)),
	"object":  reflect.TypeOf(map[string]any(nil)),
	"list":    reflect.TypeOf([]any(nil)),
	"array":   reflect.TypeOf([]any(nil)),
	"str":     reflect.TypeOf(""),
	"string":  reflect.TypeOf(""),
}

// DeclaredType resolves a declared type name. Unknown or empty names return
// nil, which the deriver treats as string.
func DeclaredType(name string) reflect.Type {
	return declaredTypes[strings.ToLower(strings.TrimSpace(name))]
}
