package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/schema"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// Provider exposes a manifest's tools to the dynamic catalog.
type Provider struct {
	manifest  *Manifest
	confirmer tools.Confirmer
	logger    loggerpkg.Logger
	verbose   bool
}

// Option configures providers built from manifests.
type Option func(*Provider)

// WithConfirmer gates tools declared with confirm: true. Without one they are
// always declined.
func WithConfirmer(c tools.Confirmer) Option {
	return func(p *Provider) {
		if c != nil {
			p.confirmer = c
		}
	}
}

// WithLogger sets the logger used for verbose tracing.
func WithLogger(l loggerpkg.Logger, verbose bool) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
		p.verbose = verbose
	}
}

// NewProvider wraps a parsed manifest.
func NewProvider(m *Manifest, opts ...Option) *Provider {
	p := &Provider{
		manifest:  m,
		confirmer: tools.DenyAll{},
		logger:    loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discover loads every manifest under dir and wraps each as a provider.
func Discover(dir string, opts ...Option) ([]tools.Provider, error) {
	manifests, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	providers := make([]tools.Provider, 0, len(manifests))
	for _, m := range manifests {
		providers = append(providers, NewProvider(m, opts...))
	}
	return providers, nil
}

// Name implements tools.Provider.
func (p *Provider) Name() string {
	return p.manifest.Name
}

// Methods implements tools.Provider, in declaration order.
func (p *Provider) Methods() []tools.Method {
	methods := make([]tools.Method, 0, len(p.manifest.Tools))
	for i := range p.manifest.Tools {
		spec := &p.manifest.Tools[i]
		params := make([]schema.Param, 0, len(spec.Params))
		for _, ps := range spec.Params {
			params = append(params, schema.Param{
				Name:       ps.Name,
				Type:       schema.DeclaredType(ps.Type),
				HasDefault: ps.Default != nil,
			})
		}
		methods = append(methods, tools.Method{
			Name:   spec.Name,
			Doc:    spec.Doc,
			Params: params,
			Title:  spec.Title,
			Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				return p.run(ctx, spec, raw), nil
			},
		})
	}
	return methods
}

func (p *Provider) run(ctx context.Context, spec *ToolSpec, raw json.RawMessage) tools.Result {
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Failuref("invalid arguments: %v", err)
	}
	for _, ps := range spec.Params {
		if _, ok := args[ps.Name]; !ok && ps.Default != nil {
			args[ps.Name] = ps.Default
		}
	}
	stdin, err := json.Marshal(args)
	if err != nil {
		return tools.Failuref("encode arguments: %v", err)
	}

	if spec.Confirm {
		ok, err := p.confirmer.Confirm(ctx, tools.Confirmation{
			Title:    "Tool Execution Request",
			Action:   fmt.Sprintf("%s <<< %s", spec.Command, stdin),
			Question: fmt.Sprintf("Do you want to run %s?", spec.Name),
		})
		if err != nil {
			return tools.Failuref("confirmation failed: %v", err)
		}
		if !ok {
			return tools.Aborted("Tool execution aborted by user.")
		}
	}

	argv, err := spec.argv()
	if err != nil {
		return tools.Failure(err.Error())
	}
	path := argv[0]
	if strings.ContainsRune(path, filepath.Separator) && !filepath.IsAbs(path) {
		path = filepath.Join(p.manifest.Dir(), filepath.Clean(path))
	}
	out := shell.Exec(ctx, shell.Command{
		Path:    path,
		Args:    argv[1:],
		Dir:     p.manifest.Dir(),
		Stdin:   stdin,
		Timeout: time.Duration(spec.TimeoutSeconds) * time.Second,
	}, p.logger, p.verbose)
	if out.Err != nil {
		return tools.Failuref("%s: %v", spec.Name, out.Err)
	}
	if out.ExitCode != 0 {
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(out.Stdout)
		}
		return tools.Failuref("%s exited with code %d: %s", spec.Name, out.ExitCode, msg)
	}

	stdout := bytes.TrimSpace([]byte(out.Stdout))
	if json.Valid(stdout) && len(stdout) > 0 {
		return tools.Success(json.RawMessage(stdout))
	}
	return tools.Success(string(stdout))
}
