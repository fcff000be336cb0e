package recall

import (
	"context"
	"sync"

	"github.com/Abraxas-365/coderecall/pkg/asyncx"
	"github.com/Abraxas-365/coderecall/pkg/logx"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// TruncationPolicy orders candidates in the deterministic truncation
// fallback. The fallback fires when further selection rounds cannot shrink
// the candidate set, or the round cap is hit.
type TruncationPolicy string

const (
	// OversizedLast packs normally-selected fragments first and offers
	// oversized carry-overs whatever budget is left. The default: a whole
	// fragment the selector actually judged relevant beats an unjudged
	// giant.
	OversizedLast TruncationPolicy = "oversized-last"

	// OversizedFirst gives oversized carry-overs first claim on the
	// budget.
	OversizedFirst TruncationPolicy = "oversized-first"
)

const (
	defaultPromptOverhead = 256
	defaultMaxRounds      = 8
	defaultMaxInFlight    = 4
)

// SelectorConfig tunes the hierarchical selection loop.
type SelectorConfig struct {
	SelectorBudget Budget
	AnalyzerBudget Budget

	// PromptOverhead is the fixed token cost of system instructions and
	// formatting added by the oracle transport per call.
	PromptOverhead int

	// MaxRounds caps selection rounds; hitting the cap routes to the
	// truncation fallback instead of looping on a pathological oracle.
	MaxRounds int

	// MaxInFlight bounds concurrent selector calls within one round.
	MaxInFlight int

	Truncation TruncationPolicy
}

func (c *SelectorConfig) applyDefaults() {
	if c.PromptOverhead <= 0 {
		c.PromptOverhead = defaultPromptOverhead
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = defaultMaxRounds
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = defaultMaxInFlight
	}
	if c.Truncation == "" {
		c.Truncation = OversizedLast
	}
}

// Selector runs the hierarchical selection loop: partition candidates into
// budget-fitting groups, judge each group's relevance concurrently, keep
// the union of relevant fragments, and repeat until the survivors fit the
// analyzer budget.
type Selector struct {
	oracle  SelectorOracle
	counter tokenx.Counter
	cfg     SelectorConfig
}

// NewSelector validates the configuration and builds a selector.
func NewSelector(oracle SelectorOracle, counter tokenx.Counter, cfg SelectorConfig) (*Selector, error) {
	if oracle == nil || counter == nil {
		return nil, errorRegistry.NewWithMessage(ErrConfigInvalid, "selector oracle and token counter are required")
	}
	if cfg.SelectorBudget.UsableCeiling() <= 0 || cfg.AnalyzerBudget.UsableCeiling() <= 0 {
		return nil, errorRegistry.NewWithMessage(ErrConfigInvalid, "selector and analyzer budgets are required")
	}
	if cfg.Truncation != "" && cfg.Truncation != OversizedLast && cfg.Truncation != OversizedFirst {
		return nil, errorRegistry.New(ErrConfigInvalid).
			WithDetail("truncation", string(cfg.Truncation))
	}
	cfg.applyDefaults()
	return &Selector{oracle: oracle, counter: counter, cfg: cfg}, nil
}

// Select curates a subset of fragments relevant to the question that is
// guaranteed to fit the analyzer budget, or fails with a selection-
// exhausted error when no non-empty subset can.
func (s *Selector) Select(ctx context.Context, fragments []*Fragment, question string, overview *Overview) ([]*Fragment, error) {
	perCallBase := s.cfg.PromptOverhead + overview.Tokens() + s.counter.Count(question)
	analyzerBase := s.cfg.PromptOverhead + s.counter.Count(question)

	candidates := fragments
	var lastResort []*Fragment

	for round := 1; round <= s.cfg.MaxRounds; round++ {
		groups, oversized, err := s.partition(candidates, perCallBase)
		if err != nil {
			return nil, err
		}
		lastResort = append(lastResort, oversized...)

		judged := 0
		for _, g := range groups {
			judged += len(g)
		}

		logx.WithFields(logx.Fields{
			"round":      round,
			"candidates": len(candidates),
			"groups":     len(groups),
			"oversized":  len(oversized),
		}).Debug("selection round")

		relevant, err := s.dispatch(ctx, question, overview.Text(), groups)
		if err != nil {
			return nil, err
		}

		next := keepRelevant(groups, relevant)
		if len(next) == 0 {
			return nil, errorRegistry.New(ErrSelectionExhausted).
				WithDetail("round", round)
		}

		if s.cfg.AnalyzerBudget.Fits(analyzerBase + sumTokens(next, s.counter)) {
			return s.withLastResort(next, lastResort, analyzerBase), nil
		}

		if len(next) == judged {
			// Everything was judged relevant; more rounds cannot shrink
			// the set.
			return s.truncate(next, lastResort, expandImports(next, fragments), analyzerBase)
		}

		candidates = next
	}

	return s.truncate(candidates, lastResort, expandImports(candidates, fragments), analyzerBase)
}

// ════════════════════════════════════════════════════════════════════════════
// Partition
// ════════════════════════════════════════════════════════════════════════════

// partition walks candidates in their stable input order and greedily
// packs them into groups whose estimate (per-call base plus fragment sum)
// stays within the selector's usable ceiling. Fragments too large for any
// group are split by lines; splits that still cannot fit alone come back
// as oversized carry-overs, excluded from dispatch but never dropped.
func (s *Selector) partition(candidates []*Fragment, perCallBase int) ([][]*Fragment, []*Fragment, error) {
	maxFragmentTokens := s.cfg.SelectorBudget.UsableCeiling() - perCallBase
	if maxFragmentTokens <= 0 {
		return nil, nil, errorRegistry.NewWithMessage(ErrConfigInvalid,
			"overview and prompt overhead leave no room for fragment content").
			WithDetail("per_call_base", perCallBase).
			WithDetail("usable_ceiling", s.cfg.SelectorBudget.UsableCeiling())
	}

	var groups [][]*Fragment
	var oversized []*Fragment
	var current []*Fragment
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentTokens = 0
		}
	}

	pack := func(f *Fragment, tokens int) {
		if currentTokens+tokens > maxFragmentTokens {
			flush()
		}
		current = append(current, f)
		currentTokens += tokens
	}

	for _, f := range candidates {
		tokens := f.Tokens(s.counter)
		if tokens <= maxFragmentTokens {
			pack(f, tokens)
			continue
		}

		for _, sub := range splitByLines(f, maxFragmentTokens, s.counter) {
			subTokens := sub.Tokens(s.counter)
			if subTokens > maxFragmentTokens {
				oversized = append(oversized, sub)
				continue
			}
			pack(sub, subTokens)
		}
	}
	flush()

	return groups, oversized, nil
}

// ════════════════════════════════════════════════════════════════════════════
// Dispatch & Reduce
// ════════════════════════════════════════════════════════════════════════════

// dispatch judges all groups of a round with bounded concurrency. The
// first failure cancels the remaining in-flight calls and the round's
// partial results are discarded; the failure that triggered the cancel is
// the one surfaced, never the cancellation noise from the calls it
// aborted. Verdicts are merged only after every call has finished; the
// merge is a commutative union, so arrival order never affects the
// outcome.
func (s *Selector) dispatch(ctx context.Context, question, overviewText string, groups [][]*Fragment) (map[string]struct{}, error) {
	roundCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failOnce sync.Once
	var firstErr error
	fail := func(err error) error {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
		return err
	}

	results, err := asyncx.Pool(roundCtx, s.cfg.MaxInFlight, groups,
		func(ctx context.Context, group []*Fragment) ([]Verdict, error) {
			verdicts, err := s.oracle.Select(ctx, SelectorRequest{
				Question:  question,
				Overview:  overviewText,
				Fragments: group,
			})
			if err != nil {
				return nil, fail(err)
			}
			if err := validateVerdicts(group, verdicts); err != nil {
				return nil, fail(err)
			}
			return verdicts, nil
		})
	if err != nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, err
	}

	relevant := make(map[string]struct{})
	for _, verdicts := range results {
		for _, v := range verdicts {
			if v.Relevant {
				relevant[v.Path] = struct{}{}
			}
		}
	}
	return relevant, nil
}

// keepRelevant filters the round's judged fragments down to the relevant
// ones, preserving the stable partition order.
func keepRelevant(groups [][]*Fragment, relevant map[string]struct{}) []*Fragment {
	var out []*Fragment
	for _, group := range groups {
		for _, f := range group {
			if _, ok := relevant[f.Path()]; ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// ════════════════════════════════════════════════════════════════════════════
// Final Fitting
// ════════════════════════════════════════════════════════════════════════════

// withLastResort appends oversized carry-overs to an already-fitting
// curated set, taking each one only if it still fits the analyzer budget.
func (s *Selector) withLastResort(curated, lastResort []*Fragment, analyzerBase int) []*Fragment {
	consumed := analyzerBase + sumTokens(curated, s.counter)
	for _, f := range lastResort {
		tokens := f.Tokens(s.counter)
		if s.cfg.AnalyzerBudget.Fits(consumed + tokens) {
			curated = append(curated, f)
			consumed += tokens
		}
	}
	return curated
}

// truncate is the deterministic fallback: pack fragments in policy order
// until the analyzer budget is full. Files referenced by the surviving
// candidates' imports widen the pool behind them, so leftover budget goes
// to transitively related content instead of nothing.
func (s *Selector) truncate(candidates, lastResort, imported []*Fragment, analyzerBase int) ([]*Fragment, error) {
	var ordered []*Fragment
	switch s.cfg.Truncation {
	case OversizedFirst:
		ordered = append(append(append(ordered, lastResort...), candidates...), imported...)
	default:
		ordered = append(append(append(ordered, candidates...), imported...), lastResort...)
	}

	var out []*Fragment
	consumed := analyzerBase
	for _, f := range ordered {
		tokens := f.Tokens(s.counter)
		if !s.cfg.AnalyzerBudget.Fits(consumed + tokens) {
			continue
		}
		out = append(out, f)
		consumed += tokens
	}

	if len(out) == 0 {
		return nil, errorRegistry.NewWithMessage(ErrSelectionExhausted,
			"no fragment fits the analyzer budget after truncation")
	}

	logx.WithFields(logx.Fields{
		"kept":     len(out),
		"dropped":  len(ordered) - len(out),
		"imported": len(imported),
		"policy":   string(s.cfg.Truncation),
	}).Warn("selection fell back to deterministic truncation")
	return out, nil
}
