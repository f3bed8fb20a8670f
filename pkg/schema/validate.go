package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidArguments marks tool-call arguments that are not valid JSON or do
// not satisfy the tool's parameter schema.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Validator checks raw tool-call arguments against a compiled parameter schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a parameter schema. name only labels the resource.
func NewValidator(name string, parameters map[string]any) (*Validator, error) {
	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("encode schema for %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema for %s: %w", name, err)
	}

	loc := "mem://toolchat/tools/" + url.PathEscape(name) + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return nil, fmt.Errorf("add schema for %s: %w", name, err)
	}
	compiled, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate parses args and checks them against the schema. Empty arguments are
// treated as an empty object.
func (v *Validator) Validate(args []byte) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if v == nil || v.schema == nil {
		return nil
	}
	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArguments, firstLine(err.Error()))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		rest := strings.TrimSpace(s[i+1:])
		if rest != "" {
			return strings.TrimSpace(s[:i]) + " " + strings.Join(strings.Fields(rest), " ")
		}
		return strings.TrimSpace(s[:i])
	}
	return s
}
