package recall

import (
	"context"

	"github.com/google/uuid"

	"github.com/Abraxas-365/coderecall/pkg/logx"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// PipelineConfig wires budgets and selection tuning for one run.
type PipelineConfig struct {
	SelectorBudget Budget
	AnalyzerBudget Budget
	PromptOverhead int
	MaxRounds      int
	MaxInFlight    int
	Truncation     TruncationPolicy
	Overview       OverviewOptions
}

// Pipeline is the end-to-end run: build overview, check whether the whole
// corpus already fits, otherwise run hierarchical selection, then invoke
// the analyzer. Component failures surface unchanged; the pipeline never
// retries (transport-level retry belongs to the oracle implementations).
type Pipeline struct {
	selector *Selector
	analyzer *Analyzer
	counter  tokenx.Counter
	cfg      PipelineConfig
}

// NewPipeline validates configuration and builds a pipeline.
func NewPipeline(selectorOracle SelectorOracle, analyzerOracle AnalyzerOracle, counter tokenx.Counter, cfg PipelineConfig) (*Pipeline, error) {
	selector, err := NewSelector(selectorOracle, counter, SelectorConfig{
		SelectorBudget: cfg.SelectorBudget,
		AnalyzerBudget: cfg.AnalyzerBudget,
		PromptOverhead: cfg.PromptOverhead,
		MaxRounds:      cfg.MaxRounds,
		MaxInFlight:    cfg.MaxInFlight,
		Truncation:     cfg.Truncation,
	})
	if err != nil {
		return nil, err
	}

	analyzer, err := NewAnalyzer(analyzerOracle, counter, cfg.AnalyzerBudget, cfg.PromptOverhead)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		selector: selector,
		analyzer: analyzer,
		counter:  counter,
		cfg:      cfg,
	}, nil
}

// Run answers the question from the fragment corpus. Exactly one of
// answer or error is produced.
func (p *Pipeline) Run(ctx context.Context, fragments []*Fragment, question string) (string, error) {
	if len(fragments) == 0 {
		return "", errorRegistry.NewWithMessage(ErrConfigInvalid, "no fragments to analyze")
	}
	if question == "" {
		return "", errorRegistry.NewWithMessage(ErrConfigInvalid, "question is required")
	}

	runID := uuid.NewString()
	log := logx.WithFields(logx.Fields{
		"run_id":    runID,
		"fragments": len(fragments),
	})
	log.Info("starting run")

	opts := p.cfg.Overview
	if opts.MaxTokens <= 0 {
		// The overview must never eat the whole selector call; cap it at a
		// quarter of the usable ceiling.
		opts.MaxTokens = p.cfg.SelectorBudget.UsableCeiling() / 4
	}
	overview := BuildOverview(fragments, p.counter, opts)

	curated := fragments
	overhead := p.cfg.PromptOverhead
	if overhead <= 0 {
		overhead = defaultPromptOverhead
	}
	estimate := overhead + p.counter.Count(question) + sumTokens(fragments, p.counter)

	if p.cfg.AnalyzerBudget.Fits(estimate) {
		log.WithField("estimate", estimate).Info("corpus fits analyzer budget, skipping selection")
	} else {
		var err error
		curated, err = p.selector.Select(ctx, fragments, question, overview)
		if err != nil {
			return "", err
		}
		log.WithField("curated", len(curated)).Info("selection complete")
	}

	answer, err := p.analyzer.Analyze(ctx, curated, question)
	if err != nil {
		return "", err
	}

	log.Info("run complete")
	return answer, nil
}
