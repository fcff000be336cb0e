// coderecall answers natural-language questions about a repository that is
// too large for a single model context. Only the final answer goes to
// stdout; every diagnostic goes to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/coderecall/pkg/config"
	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/logx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
)

func main() {
	os.Exit(run())
}

func run() int {
	question := flag.String("question", "", "question to answer about the repository (required)")
	root := flag.String("root", ".", "repository root")
	provider := flag.String("provider", "", "oracle provider: gemini, openai, anthropic, bedrock")
	headroom := flag.Float64("headroom", -1, "token budget headroom fraction in [0, 1)")
	selectorTokens := flag.Int("selector-tokens", 0, "selector oracle context ceiling in tokens")
	analyzerTokens := flag.Int("analyzer-tokens", 0, "analyzer oracle context ceiling in tokens")
	allowSecrets := flag.Bool("allow-secrets", false, "load secret-looking files and skip redaction")
	truncation := flag.String("truncation", "", "fallback truncation policy: oversized-last or oversized-first")
	timeout := flag.Duration("timeout", 0, "per-call oracle timeout (0 uses the configured default)")
	flag.Parse()

	if *question == "" {
		fmt.Fprintln(os.Stderr, "coderecall: -question is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*root)
	if err != nil {
		logx.WithError(err).Error("failed to load config")
		return 2
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *headroom >= 0 {
		cfg.Headroom = *headroom
	}
	if *selectorTokens > 0 {
		cfg.SelectorTokens = *selectorTokens
	}
	if *analyzerTokens > 0 {
		cfg.AnalyzerTokens = *analyzerTokens
	}
	if *allowSecrets {
		cfg.AllowSecrets = true
	}
	if *truncation != "" {
		cfg.Truncation = *truncation
	}
	if *timeout > 0 {
		cfg.CallTimeout = *timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := NewContainer(ctx, cfg, *root)
	if err != nil {
		logx.WithError(err).Error("initialization failed")
		return 2
	}

	scan, err := c.Scanner.Scan(ctx)
	if err != nil {
		logx.WithError(err).Error("repository scan failed")
		return 1
	}

	fragments := make([]*recall.Fragment, 0, len(scan.Files))
	for _, f := range scan.Files {
		fragments = append(fragments, recall.NewFragment(f.Path, f.Content))
	}

	answer, err := c.Pipeline.Run(ctx, fragments, *question)
	if err != nil {
		if errx.IsCode(err, recall.ErrSelectionExhausted) {
			logx.WithError(err).Warn("no answer possible: nothing relevant fits the budget")
		} else {
			logx.WithError(err).Error("run failed")
		}
		return 1
	}

	// stdout carries the answer and nothing else.
	fmt.Println(answer)
	return 0
}
