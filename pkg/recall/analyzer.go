package recall

import (
	"context"

	"github.com/Abraxas-365/coderecall/pkg/logx"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// Analyzer packages the curated fragments and the question into the single
// expensive oracle call of a run.
type Analyzer struct {
	oracle         AnalyzerOracle
	counter        tokenx.Counter
	budget         Budget
	promptOverhead int
}

// NewAnalyzer builds the analyzer adapter.
func NewAnalyzer(oracle AnalyzerOracle, counter tokenx.Counter, budget Budget, promptOverhead int) (*Analyzer, error) {
	if oracle == nil || counter == nil {
		return nil, errorRegistry.NewWithMessage(ErrConfigInvalid, "analyzer oracle and token counter are required")
	}
	if budget.UsableCeiling() <= 0 {
		return nil, errorRegistry.NewWithMessage(ErrConfigInvalid, "analyzer budget is required")
	}
	if promptOverhead <= 0 {
		promptOverhead = defaultPromptOverhead
	}
	return &Analyzer{
		oracle:         oracle,
		counter:        counter,
		budget:         budget,
		promptOverhead: promptOverhead,
	}, nil
}

// Analyze re-checks the curated set against the budget and invokes the
// analyzer oracle once. The re-check is deliberate even though the
// selector already fitted the set: the two estimates may round
// differently, and an over-budget call must fail here rather than at the
// provider.
func (a *Analyzer) Analyze(ctx context.Context, curated []*Fragment, question string) (string, error) {
	estimate := a.promptOverhead + a.counter.Count(question) + sumTokens(curated, a.counter)
	if !a.budget.Fits(estimate) {
		return "", errorRegistry.New(ErrBudgetExceeded).
			WithDetail("estimate", estimate).
			WithDetail("usable_ceiling", a.budget.UsableCeiling())
	}

	logx.WithFields(logx.Fields{
		"fragments": len(curated),
		"estimate":  estimate,
	}).Info("invoking analyzer")

	return a.oracle.Analyze(ctx, AnalyzerRequest{
		Question:  question,
		Fragments: curated,
	})
}
