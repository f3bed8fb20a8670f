// Package manifest discovers command-backed tools declared in YAML files.
//
// Every *.yaml or *.yml file in a tools directory is one provider, except the
// shared base manifest (base.yaml) and files whose name starts with "_". A
// manifest looks like:
//
//	name: notes
//	tools:
//	  - name: add_note
//	    doc: |
//	      Append a note to the notebook.
//	      text: The note body.
//	    params:
//	      - {name: text, type: str}
//	      - {name: tag, type: str, default: general}
//	    command: ./notes.sh add
//	    confirm: true
//	    timeout_seconds: 10
//
// The command runs without a shell, from the manifest's directory, with the
// JSON arguments on stdin.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
)

// BaseManifest is the shared manifest name skipped by discovery.
const BaseManifest = "base.yaml"

// Manifest is one parsed tool file.
type Manifest struct {
	Name  string     `yaml:"name"`
	Tools []ToolSpec `yaml:"tools"`

	// Path is the absolute path of the file the manifest was read from.
	Path string `yaml:"-"`
}

// ToolSpec declares one command-backed tool.
type ToolSpec struct {
	Name           string      `yaml:"name"`
	Doc            string      `yaml:"doc"`
	Params         []ParamSpec `yaml:"params"`
	Command        string      `yaml:"command"`
	Confirm        bool        `yaml:"confirm"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Title          string      `yaml:"title"`
}

// ParamSpec declares one tool parameter. A parameter with a default is optional.
type ParamSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

// Discoverable reports whether a file name takes part in discovery.
func Discoverable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	if strings.HasPrefix(name, "_") || strings.EqualFold(name, BaseManifest) {
		return false
	}
	return true
}

// LoadDir parses every discoverable manifest directly under dir, sorted by
// file name.
func LoadDir(dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tools dir: %w", err)
	}

	var manifests []*Manifest
	for _, entry := range entries {
		if entry.IsDir() || !Discoverable(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// ParseFile reads and validates one manifest.
func ParseFile(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.Path = abs
	if strings.TrimSpace(m.Name) == "" {
		base := filepath.Base(path)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Tools) == 0 {
		return fmt.Errorf("manifest %s declares no tools", m.Name)
	}
	for i := range m.Tools {
		spec := &m.Tools[i]
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return fmt.Errorf("tool %d: missing name", i)
		}
		if spec.TimeoutSeconds < 0 {
			return fmt.Errorf("tool %s: timeout_seconds must not be negative", spec.Name)
		}
		if _, err := spec.argv(); err != nil {
			return fmt.Errorf("tool %s: %w", spec.Name, err)
		}

		seen := make(map[string]bool, len(spec.Params))
		for _, p := range spec.Params {
			if p.Name == "" {
				return fmt.Errorf("tool %s: parameter without name", spec.Name)
			}
			if seen[p.Name] {
				return fmt.Errorf("tool %s: duplicate parameter %q", spec.Name, p.Name)
			}
			seen[p.Name] = true
		}
	}
	return nil
}

func (s *ToolSpec) argv() ([]string, error) {
	argv, err := shell.ParseCommandLine(s.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	return argv, nil
}

// Dir is the directory commands run from.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}
