package main

import (
	"fmt"
	"time"

	configpkg "github.com/minhyannv/toolchat-go/pkg/config"
	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/custom"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/manifest"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/wiki"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// buildCatalog assembles the tool catalog for the configured mode. Tools
// with side effects ask confirmer before running.
func buildCatalog(cfg configpkg.Config, confirmer tools.Confirmer, logger loggerpkg.Logger) (*tools.Catalog, error) {
	policy, err := tools.ParseDuplicatePolicy(cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	buildOpts := []tools.BuildOption{
		tools.WithDuplicatePolicy(policy),
		tools.WithLogger(logger),
	}

	sh := shell.New(confirmer,
		shell.WithTimeout(time.Duration(cfg.ShellTimeoutSeconds)*time.Second),
		shell.WithLogger(logger, cfg.Verbose),
	)

	switch cfg.ToolMode {
	case configpkg.ToolModeStatic:
		if len(cfg.ToolsDirs) > 0 {
			logger.Warn("tools_dir is ignored in static mode", map[string]any{"tools_dirs": cfg.ToolsDirs})
		}
		wikiClient := wiki.New(
			wiki.WithEndpoint(cfg.WikiEndpoint),
			wiki.WithLogger(logger, cfg.Verbose),
		)
		return tools.BuildStatic([]tools.Descriptor{wikiClient.Descriptor(), sh.Descriptor()}, buildOpts...)

	case configpkg.ToolModeDynamic:
		providers := []tools.Provider{custom.New(sh, custom.WithLogger(logger, cfg.Verbose))}
		for _, dir := range cfg.ToolsDirs {
			found, err := manifest.Discover(dir,
				manifest.WithConfirmer(confirmer),
				manifest.WithLogger(logger, cfg.Verbose),
			)
			if err != nil {
				return nil, err
			}
			loggerpkg.Debug(cfg.Verbose, logger, "tool manifests discovered", map[string]any{"dir": dir, "count": len(found)})
			providers = append(providers, found...)
		}
		return tools.BuildDynamic(providers, buildOpts...)

	default:
		return nil, fmt.Errorf("unknown tool mode %q", cfg.ToolMode)
	}
}
