// cmd/coderecall/container.go
//
// Composition root. Builds the oracle client for the chosen provider and
// wires the scan, selection, and analysis components together. This is the
// only place that knows about ALL packages.
package main

import (
	"context"
	"os"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/Abraxas-365/coderecall/pkg/ai/llm"
	"github.com/Abraxas-365/coderecall/pkg/ai/providers/aianthropic"
	"github.com/Abraxas-365/coderecall/pkg/ai/providers/aibedrock"
	"github.com/Abraxas-365/coderecall/pkg/ai/providers/aigemini"
	"github.com/Abraxas-365/coderecall/pkg/ai/providers/aiopenai"
	"github.com/Abraxas-365/coderecall/pkg/config"
	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/coderecall/pkg/logx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
	"github.com/Abraxas-365/coderecall/pkg/recall/oraclellm"
	"github.com/Abraxas-365/coderecall/pkg/repox"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// Container holds the wired components for one run.
type Container struct {
	Config   *config.Config
	Scanner  *repox.Scanner
	Pipeline *recall.Pipeline
}

func NewContainer(ctx context.Context, cfg *config.Config, root string) (*Container, error) {
	fs, err := fsxlocal.NewLocalFileSystem(root)
	if err != nil {
		return nil, err
	}

	scanner := repox.NewScanner(fs, repox.Options{
		Excludes:     cfg.Excludes,
		AllowSecrets: cfg.AllowSecrets,
		FileCap:      cfg.FileCapBytes,
	})

	client, err := newOracleClient(ctx, cfg.Provider)
	if err != nil {
		return nil, err
	}

	counter := tokenx.NewCounter()

	selectorBudget, err := recall.NewBudget(cfg.SelectorTokens, cfg.Headroom)
	if err != nil {
		return nil, err
	}
	analyzerBudget, err := recall.NewBudget(cfg.AnalyzerTokens, cfg.Headroom)
	if err != nil {
		return nil, err
	}

	selectorOpts := []oraclellm.Option{
		oraclellm.WithCallTimeout(cfg.CallTimeout),
		oraclellm.WithMaxAttempts(cfg.MaxAttempts),
	}
	if cfg.SelectorModel != "" {
		selectorOpts = append(selectorOpts, oraclellm.WithModel(cfg.SelectorModel))
	}
	analyzerOpts := []oraclellm.Option{
		oraclellm.WithCallTimeout(cfg.CallTimeout),
		oraclellm.WithMaxAttempts(cfg.MaxAttempts),
	}
	if cfg.AnalyzerModel != "" {
		analyzerOpts = append(analyzerOpts, oraclellm.WithModel(cfg.AnalyzerModel))
	}

	pipeline, err := recall.NewPipeline(
		oraclellm.NewSelectorOracle(client, selectorOpts...),
		oraclellm.NewAnalyzerOracle(client, analyzerOpts...),
		counter,
		recall.PipelineConfig{
			SelectorBudget: selectorBudget,
			AnalyzerBudget: analyzerBudget,
			PromptOverhead: cfg.PromptOverhead,
			MaxRounds:      cfg.MaxRounds,
			MaxInFlight:    cfg.MaxInFlight,
			Truncation:     recall.TruncationPolicy(cfg.Truncation),
			Overview: recall.OverviewOptions{
				TreeDepth: cfg.TreeDepth,
				MaxLines:  cfg.OverviewMaxLines,
			},
		},
	)
	if err != nil {
		return nil, err
	}

	logx.WithField("provider", cfg.Provider).Debug("container initialized")

	return &Container{
		Config:   cfg,
		Scanner:  scanner,
		Pipeline: pipeline,
	}, nil
}

func newOracleClient(ctx context.Context, provider string) (llm.Client, error) {
	switch provider {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		return aigemini.NewGeminiProvider(ctx, apiKey)

	case "openai":
		return aiopenai.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY")), nil

	case "anthropic":
		return aianthropic.NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY")), nil

	case "bedrock":
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return aibedrock.NewBedrockProvider(awsCfg), nil

	default:
		return nil, errx.New("unknown provider: "+provider, errx.TypeValidation)
	}
}
