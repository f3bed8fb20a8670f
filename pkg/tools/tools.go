// Package tools holds the tool catalog offered to the model: descriptors,
// invocation results, and the static and dynamic catalog builders.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minhyannv/toolchat-go/pkg/schema"
)

// Handler runs one tool invocation. See AsResult for how return values map
// to results.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Descriptor is one catalog entry.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
	// Title labels the tool in the terminal. Defaults to Name.
	Title string

	validator *schema.Validator
}

// Invoke validates args and runs the handler. Invalid arguments, handler
// errors and panics all become Failure results.
func (d *Descriptor) Invoke(ctx context.Context, args json.RawMessage) (result Result) {
	if err := d.validator.Validate(args); err != nil {
		return Failure(err.Error())
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if d.Handler == nil {
		return Failuref("tool %s has no handler", d.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			result = Failuref("tool %s panicked: %v", d.Name, r)
		}
	}()
	return AsResult(d.Handler(ctx, args))
}

// Label is the display title of the tool.
func (d *Descriptor) Label() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

func (d *Descriptor) compile() error {
	if d.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if !validName(d.Name) {
		return fmt.Errorf("tool %q: name must match [a-zA-Z0-9_-]{1,64}", d.Name)
	}
	if d.Description == "" {
		return fmt.Errorf("tool %s: description is required", d.Name)
	}
	if d.Parameters == nil {
		d.Parameters = map[string]any{"type": schema.TypeObject, "properties": map[string]any{}}
	}
	v, err := schema.NewValidator(d.Name, d.Parameters)
	if err != nil {
		return fmt.Errorf("tool %s: %w", d.Name, err)
	}
	d.validator = v
	return nil
}

func validName(name string) bool {
	if len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
