package recall_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

func newTestPipeline(t *testing.T, sel *mockSelector, an *mockAnalyzer, analyzerTotal int) *recall.Pipeline {
	t.Helper()
	p, err := recall.NewPipeline(sel, an, tokenx.CharCounter{}, recall.PipelineConfig{
		SelectorBudget: mustBudget(t, 1000, 0.1),
		AnalyzerBudget: mustBudget(t, analyzerTotal, 0.1),
		PromptOverhead: 1,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestPipeline_SmallCorpusSkipsSelection(t *testing.T) {
	sel := &mockSelector{judge: markAll(true)}
	an := &mockAnalyzer{answer: "it prints hello"}
	p := newTestPipeline(t, sel, an, 1000)

	fragments := []*recall.Fragment{
		frag("main.go", contentOfTokens(100)),
		frag("util.go", contentOfTokens(100)),
	}

	answer, err := p.Run(context.Background(), fragments, "what does it do?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "it prints hello" {
		t.Fatalf("wrong answer: %q", answer)
	}
	if len(sel.requests()) != 0 {
		t.Fatal("selection must be skipped when the corpus already fits")
	}
	if an.callCount() != 1 {
		t.Fatalf("expected one analyzer call, got %d", an.callCount())
	}
	if len(an.calls[0].Fragments) != 2 {
		t.Fatalf("analyzer should see the whole corpus, got %d fragments", len(an.calls[0].Fragments))
	}
}

func TestPipeline_LargeCorpusRunsSelection(t *testing.T) {
	var fragments []*recall.Fragment
	for i := 0; i < 30; i++ {
		fragments = append(fragments, frag(fmt.Sprintf("f%02d.go", i), contentOfTokens(100)))
	}

	sel := &mockSelector{judge: markPaths("f07.go", "f21.go")}
	an := &mockAnalyzer{answer: "found it"}
	p := newTestPipeline(t, sel, an, 1000)

	answer, err := p.Run(context.Background(), fragments, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "found it" {
		t.Fatalf("wrong answer: %q", answer)
	}
	if len(sel.requests()) == 0 {
		t.Fatal("selection should run for an over-budget corpus")
	}
	if got := len(an.calls[0].Fragments); got != 2 {
		t.Fatalf("analyzer should see only the curated set, got %d fragments", got)
	}
}

func TestPipeline_SelectionFailureSurfacesUnchanged(t *testing.T) {
	var fragments []*recall.Fragment
	for i := 0; i < 30; i++ {
		fragments = append(fragments, frag(fmt.Sprintf("f%02d.go", i), contentOfTokens(100)))
	}

	sel := &mockSelector{judge: markAll(false)}
	an := &mockAnalyzer{answer: "never"}
	p := newTestPipeline(t, sel, an, 1000)

	_, err := p.Run(context.Background(), fragments, "q")
	if !errx.IsCode(err, recall.ErrSelectionExhausted) {
		t.Fatalf("expected selection exhausted passed through, got %v", err)
	}
	if an.callCount() != 0 {
		t.Fatal("analyzer must not run after a selection failure")
	}
}

func TestPipeline_RejectsEmptyInput(t *testing.T) {
	sel := &mockSelector{judge: markAll(true)}
	an := &mockAnalyzer{answer: "x"}
	p := newTestPipeline(t, sel, an, 1000)

	if _, err := p.Run(context.Background(), nil, "q"); !errx.IsCode(err, recall.ErrConfigInvalid) {
		t.Fatalf("expected config error for empty corpus, got %v", err)
	}
	if _, err := p.Run(context.Background(), []*recall.Fragment{frag("a.go", "x")}, ""); !errx.IsCode(err, recall.ErrConfigInvalid) {
		t.Fatalf("expected config error for empty question, got %v", err)
	}
}
