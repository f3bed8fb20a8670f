package tools

import (
	"errors"
	"fmt"
	"strings"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/schema"
	"github.com/openai/openai-go"
)

// ErrDuplicateTool is returned by Build when two tools share a name under
// RejectDuplicates.
var ErrDuplicateTool = errors.New("duplicate tool name")

// DuplicatePolicy decides what happens when a tool name is registered twice.
type DuplicatePolicy int

const (
	// RejectDuplicates fails the build.
	RejectDuplicates DuplicatePolicy = iota
	// ReplaceDuplicates keeps the later tool (last write wins). The entry keeps
	// the position of the first registration.
	ReplaceDuplicates
)

// ParseDuplicatePolicy parses "reject" or "replace".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectDuplicates, nil
	case "replace":
		return ReplaceDuplicates, nil
	default:
		return RejectDuplicates, fmt.Errorf("unknown duplicate policy %q (want reject or replace)", s)
	}
}

func (p DuplicatePolicy) String() string {
	if p == ReplaceDuplicates {
		return "replace"
	}
	return "reject"
}

// Catalog is the immutable, name-keyed set of tools offered to the model.
type Catalog struct {
	order  []string
	byName map[string]*Descriptor
	params []openai.ChatCompletionToolParam
}

// Lookup finds a tool by name.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.byName[name]
	return d, ok
}

// Names lists tool names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Len is the number of distinct tools.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// WireFormat returns the catalog as chat-completion function tools.
func (c *Catalog) WireFormat() []openai.ChatCompletionToolParam {
	if c == nil {
		return nil
	}
	return c.params
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithDuplicatePolicy sets how repeated names are handled.
func WithDuplicatePolicy(p DuplicatePolicy) BuildOption {
	return func(b *Builder) {
		b.policy = p
	}
}

// WithLogger injects a logger.
func WithLogger(l loggerpkg.Logger) BuildOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Builder merges descriptors from several sources into one Catalog.
type Builder struct {
	policy DuplicatePolicy
	logger loggerpkg.Logger

	order  []string
	byName map[string]*Descriptor
	origin map[string]string
	errs   []error
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...BuildOption) *Builder {
	b := &Builder{
		logger: loggerpkg.NopLogger{},
		byName: make(map[string]*Descriptor),
		origin: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Add registers descriptors contributed by origin (a provider or file name,
// used in error messages).
func (b *Builder) Add(origin string, descs ...Descriptor) *Builder {
	for _, desc := range descs {
		d := desc
		if err := d.compile(); err != nil {
			b.errs = append(b.errs, fmt.Errorf("%s: %w", origin, err))
			continue
		}
		if prev, exists := b.origin[d.Name]; exists {
			if b.policy == RejectDuplicates {
				b.errs = append(b.errs, fmt.Errorf("%w: %s (registered by %s and %s)", ErrDuplicateTool, d.Name, prev, origin))
				continue
			}
			b.logger.Warn("tool replaced", map[string]any{
				"name":     d.Name,
				"previous": prev,
				"origin":   origin,
			})
		} else {
			b.order = append(b.order, d.Name)
		}
		b.byName[d.Name] = &d
		b.origin[d.Name] = origin
	}
	return b
}

// AddProvider derives descriptors for every public method of p.
func (b *Builder) AddProvider(p Provider) *Builder {
	if p == nil {
		return b
	}
	return b.Add(p.Name(), Describe(p)...)
}

// Build returns the catalog, or every registration error joined.
func (b *Builder) Build() (*Catalog, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	c := &Catalog{
		order:  append([]string(nil), b.order...),
		byName: make(map[string]*Descriptor, len(b.byName)),
		params: make([]openai.ChatCompletionToolParam, 0, len(b.order)),
	}
	for _, name := range b.order {
		d := b.byName[name]
		c.byName[name] = d
		c.params = append(c.params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(d.Parameters),
			},
		})
	}
	return c, nil
}

// BuildStatic builds a catalog from hand-declared descriptors.
func BuildStatic(descs []Descriptor, opts ...BuildOption) (*Catalog, error) {
	return NewBuilder(opts...).Add("static", descs...).Build()
}

// BuildDynamic builds a catalog by deriving every provider's methods.
func BuildDynamic(providers []Provider, opts ...BuildOption) (*Catalog, error) {
	b := NewBuilder(opts...)
	for _, p := range providers {
		b.AddProvider(p)
	}
	return b.Build()
}

// Method is one callable a Provider exposes.
type Method struct {
	Name    string
	Doc     string
	Params  []schema.Param
	Handler Handler
	Title   string
}

// Provider is a tool-bearing unit whose methods become catalog entries. The
// parameter schema of each method is derived from Params and Doc.
type Provider interface {
	Name() string
	Methods() []Method
}

// Describe derives descriptors for p's public methods. Methods whose name
// starts with an underscore are private and skipped.
func Describe(p Provider) []Descriptor {
	methods := p.Methods()
	out := make([]Descriptor, 0, len(methods))
	for _, m := range methods {
		if strings.HasPrefix(m.Name, "_") {
			continue
		}
		derived := schema.Derive(m.Params, m.Doc)
		out = append(out, Descriptor{
			Name:        m.Name,
			Description: derived.Description,
			Parameters:  derived.Parameters,
			Handler:     m.Handler,
			Title:       m.Title,
		})
	}
	return out
}
