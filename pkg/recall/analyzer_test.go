package recall_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

type mockAnalyzer struct {
	mu     sync.Mutex
	calls  []recall.AnalyzerRequest
	answer string
	err    error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req recall.AnalyzerRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.answer, m.err
}

func (m *mockAnalyzer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestAnalyzer_SingleCallOnSuccess(t *testing.T) {
	oracle := &mockAnalyzer{answer: "the config is parsed in config.go"}
	a, err := recall.NewAnalyzer(oracle, tokenx.CharCounter{}, mustBudget(t, 1000, 0.1), 1)
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}

	curated := []*recall.Fragment{frag("config.go", contentOfTokens(200))}
	answer, err := a.Analyze(context.Background(), curated, "where is the config parsed?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != oracle.answer {
		t.Fatalf("answer passed through wrong: %q", answer)
	}
	if oracle.callCount() != 1 {
		t.Fatalf("expected exactly one analyzer call, got %d", oracle.callCount())
	}
}

func TestAnalyzer_RejectsOverBudgetWithoutCalling(t *testing.T) {
	oracle := &mockAnalyzer{answer: "never"}
	a, err := recall.NewAnalyzer(oracle, tokenx.CharCounter{}, mustBudget(t, 100, 0.1), 1)
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}

	curated := []*recall.Fragment{frag("big.go", contentOfTokens(500))}
	_, err = a.Analyze(context.Background(), curated, "q")
	if !errx.IsCode(err, recall.ErrBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	if oracle.callCount() != 0 {
		t.Fatal("over-budget request must never reach the oracle")
	}
}

func TestNewAnalyzer_RequiresOracleAndCounter(t *testing.T) {
	if _, err := recall.NewAnalyzer(nil, tokenx.CharCounter{}, mustBudget(t, 100, 0), 1); !errx.IsCode(err, recall.ErrConfigInvalid) {
		t.Fatalf("expected config error for nil oracle, got %v", err)
	}
	if _, err := recall.NewAnalyzer(&mockAnalyzer{}, nil, mustBudget(t, 100, 0), 1); !errx.IsCode(err, recall.ErrConfigInvalid) {
		t.Fatalf("expected config error for nil counter, got %v", err)
	}
}
