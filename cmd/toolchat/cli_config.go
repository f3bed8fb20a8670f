package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	configpkg "github.com/minhyannv/toolchat-go/pkg/config"
)

// parseCLIConfig loads .env, the config file and the environment, then lets
// explicitly set flags override them.
func parseCLIConfig(args []string, stderr io.Writer) (configpkg.Config, error) {
	fs := flag.NewFlagSet("toolchat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var toolsDirs stringSliceFlag
	configPath := fs.String("config", "", "Path to a YAML/TOML/JSON config file")
	toolMode := fs.String("tools", configpkg.ToolModeStatic, "Tool catalog: static (Wikipedia + shell) or dynamic (discovered toolsets)")
	fs.Var(&toolsDirs, "tools_dir", "Directory of YAML tool manifests for dynamic mode. Repeat this flag for multiple directories; comma-separated values are not supported")
	duplicates := fs.String("duplicates", "reject", "Duplicate tool names: reject or replace (last one wins)")
	baseURL := fs.String("base_url", configpkg.DefaultBaseURL, "OpenAI-compatible server URL")
	model := fs.String("model", configpkg.DefaultModel, "Model name")
	verbose := fs.Bool("verbose", false, "Verbose request and tool-call logging")
	directReply := fs.Bool("direct_reply", false, "Print a reply without tool calls as-is instead of requesting a streamed one")
	noColor := fs.Bool("no_color", false, "Disable ANSI colors")
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}
	if fs.NArg() > 0 {
		return configpkg.Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg, err := configpkg.Load(*configPath)
	if err != nil {
		return configpkg.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tools":
			cfg.ToolMode = *toolMode
		case "tools_dir":
			cfg.ToolsDirs = toolsDirs.values()
		case "duplicates":
			cfg.Duplicates = *duplicates
		case "base_url":
			cfg.BaseURL = *baseURL
		case "model":
			cfg.Model = *model
		case "verbose":
			cfg.Verbose = *verbose
		case "direct_reply":
			cfg.DirectReply = *directReply
		case "no_color":
			cfg.NoColor = *noColor
		}
	})

	cfg = configpkg.Normalize(cfg)
	if err := configpkg.Validate(cfg); err != nil {
		return configpkg.Config{}, err
	}
	return cfg, nil
}

type stringSliceFlag []string

func (f *stringSliceFlag) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(*f, ",")
}

func (f *stringSliceFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty tools directory")
	}
	if strings.Contains(value, ",") {
		return fmt.Errorf("comma-separated values are not supported for -tools_dir; repeat the flag instead")
	}
	*f = append(*f, value)
	return nil
}

func (f stringSliceFlag) values() []string {
	out := make([]string, len(f))
	copy(out, f)
	return out
}
