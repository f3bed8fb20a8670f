// Package main is the interactive toolchat CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/minhyannv/toolchat-go/pkg/agent"
	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/llm"
	"github.com/minhyannv/toolchat-go/pkg/prompt"
	"github.com/minhyannv/toolchat-go/pkg/ui"
)

// main is the program entry point.
func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run wires the session and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCLIConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level, err := loggerpkg.ParseLevel(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	appLogger := loggerpkg.NewWriterLogger(stderr, level)

	termOpts := []ui.Option{}
	if cfg.NoColor {
		termOpts = append(termOpts, ui.WithColor(false))
	}
	term := ui.New(stdin, stdout, termOpts...)

	catalog, err := buildCatalog(cfg, term, appLogger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: build tool catalog: %v\n", err)
		return 1
	}

	model, err := llm.New(llm.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Logger:  appLogger,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	loop, err := agent.New(model, catalog,
		agent.WithLogger(appLogger),
		agent.WithVerbose(cfg.Verbose),
		agent.WithObserver(term),
		agent.WithSystemPrompt(prompt.BuildSystemPrompt(catalog)),
		agent.WithDirectReply(cfg.DirectReply),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	term.Welcome(prompt.Greeting(catalog))
	if err := runREPL(ctx, loop, term, replOptions{Verbose: cfg.Verbose, Logger: appLogger}); err != nil {
		term.Fatal(err, ui.ServerInfo{BaseURL: cfg.BaseURL, Model: cfg.Model})
		return 1
	}
	return 0
}
