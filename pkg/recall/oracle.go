package recall

import (
	"context"
)

// SelectorRequest is one relevance-judging call: the question, the shared
// overview, and exactly one group of fragments.
type SelectorRequest struct {
	Question  string
	Overview  string
	Fragments []*Fragment
}

// Verdict is a per-fragment relevance judgment. Verdicts are only ever
// attributed to fragments that were members of the call's group.
type Verdict struct {
	Path      string
	Relevant  bool
	Rationale string
}

// SelectorOracle judges the relevance of a group of fragments to a
// question. Cheap and high-context; called many times per run.
type SelectorOracle interface {
	Select(ctx context.Context, req SelectorRequest) ([]Verdict, error)
}

// AnalyzerRequest is the single expensive call of a run: the question plus
// the final curated fragments.
type AnalyzerRequest struct {
	Question  string
	Fragments []*Fragment
}

// AnalyzerOracle produces the answer from the curated content. Called
// exactly once per successful run.
type AnalyzerOracle interface {
	Analyze(ctx context.Context, req AnalyzerRequest) (string, error)
}

// validateVerdicts enforces exactly one verdict per group member. A
// verdict for an outside path, a duplicate, or a member left unjudged all
// refuse the oracle output at the boundary; a silently dropped member
// would otherwise vanish from the run as if judged irrelevant.
func validateVerdicts(group []*Fragment, verdicts []Verdict) error {
	members := make(map[string]struct{}, len(group))
	for _, f := range group {
		members[f.Path()] = struct{}{}
	}
	seen := make(map[string]struct{}, len(verdicts))
	for _, v := range verdicts {
		if _, ok := members[v.Path]; !ok {
			return errorRegistry.NewWithMessage(ErrOracleContract,
				"verdict for a path outside the group").
				WithDetail("path", v.Path).
				WithDetail("group_size", len(group))
		}
		if _, dup := seen[v.Path]; dup {
			return errorRegistry.NewWithMessage(ErrOracleContract,
				"duplicate verdict for path").
				WithDetail("path", v.Path).
				WithDetail("group_size", len(group))
		}
		seen[v.Path] = struct{}{}
	}
	for _, f := range group {
		if _, ok := seen[f.Path()]; !ok {
			return errorRegistry.NewWithMessage(ErrOracleContract,
				"missing verdict for group member").
				WithDetail("path", f.Path()).
				WithDetail("group_size", len(group))
		}
	}
	return nil
}
