package oraclellm_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/coderecall/pkg/ai/llm"
	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
	"github.com/Abraxas-365/coderecall/pkg/recall/oraclellm"
)

// mockLLM returns canned responses and records what it was asked.
type mockLLM struct {
	mu       sync.Mutex
	messages [][]llm.Message
	reply    string
	err      error
	failures int // errors to return before succeeding
}

func (m *mockLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages)
	if m.failures > 0 {
		m.failures--
		return llm.Response{}, errx.New("transient", errx.TypeExternal)
	}
	if m.err != nil {
		return llm.Response{}, m.err
	}
	return llm.Response{Message: llm.NewAssistantMessage(m.reply)}, nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.messages[len(m.messages)-1]
	return last[len(last)-1].Content
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func selReq() recall.SelectorRequest {
	return recall.SelectorRequest{
		Question: "where is auth handled?",
		Overview: "tree",
		Fragments: []*recall.Fragment{
			recall.NewFragment("auth.go", "package auth"),
			recall.NewFragment("main.go", "package main"),
		},
	}
}

// --- Selector oracle tests ---

func TestSelectorOracle_ParsesVerdicts(t *testing.T) {
	client := &mockLLM{reply: `{"verdicts":[
		{"path":"auth.go","relevant":true,"rationale":"implements auth"},
		{"path":"main.go","relevant":false}
	]}`}
	oracle := oraclellm.NewSelectorOracle(client)

	verdicts, err := oracle.Select(context.Background(), selReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	if !verdicts[0].Relevant || verdicts[0].Path != "auth.go" {
		t.Fatalf("bad first verdict: %+v", verdicts[0])
	}
	if verdicts[1].Relevant {
		t.Fatalf("main.go should be irrelevant: %+v", verdicts[1])
	}
}

func TestSelectorOracle_ToleratesMarkdownFences(t *testing.T) {
	client := &mockLLM{reply: "```json\n{\"verdicts\":[{\"path\":\"auth.go\",\"relevant\":true}]}\n```"}
	oracle := oraclellm.NewSelectorOracle(client)

	verdicts, err := oracle.Select(context.Background(), selReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 1 || !verdicts[0].Relevant {
		t.Fatalf("fenced JSON not parsed: %+v", verdicts)
	}
}

func TestSelectorOracle_ToleratesBareArray(t *testing.T) {
	client := &mockLLM{reply: `[{"path":"auth.go","relevant":true}]`}
	oracle := oraclellm.NewSelectorOracle(client)

	verdicts, err := oracle.Select(context.Background(), selReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 1 {
		t.Fatalf("bare array not parsed: %+v", verdicts)
	}
}

func TestSelectorOracle_MalformedResponse(t *testing.T) {
	client := &mockLLM{reply: "I think auth.go looks relevant."}
	oracle := oraclellm.NewSelectorOracle(client)

	if _, err := oracle.Select(context.Background(), selReq()); err == nil {
		t.Fatal("expected a parse error for prose output")
	}
}

func TestSelectorOracle_PromptCarriesQuestionOverviewAndFiles(t *testing.T) {
	client := &mockLLM{reply: `{"verdicts":[]}`}
	oracle := oraclellm.NewSelectorOracle(client)

	if _, err := oracle.Select(context.Background(), selReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := client.lastPrompt()
	for _, want := range []string{"where is auth handled?", "PROJECT OVERVIEW:", "tree", `<file path="auth.go">`, "package auth"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSelectorOracle_RetriesTransientFailures(t *testing.T) {
	client := &mockLLM{reply: `{"verdicts":[]}`, failures: 2}
	oracle := oraclellm.NewSelectorOracle(client,
		oraclellm.WithMaxAttempts(3),
		oraclellm.WithRetryDelay(time.Millisecond),
	)

	if _, err := oracle.Select(context.Background(), selReq()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if client.callCount() != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.callCount())
	}
}

// --- Analyzer oracle tests ---

func TestAnalyzerOracle_BundlesFragmentsAsCXML(t *testing.T) {
	client := &mockLLM{reply: "auth lives in auth.go"}
	oracle := oraclellm.NewAnalyzerOracle(client)

	answer, err := oracle.Analyze(context.Background(), recall.AnalyzerRequest{
		Question: "where is auth handled?",
		Fragments: []*recall.Fragment{
			recall.NewFragment("auth.go", "package auth"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "auth lives in auth.go" {
		t.Fatalf("wrong answer: %q", answer)
	}

	prompt := client.lastPrompt()
	for _, want := range []string{"<files>", `<file path="auth.go">`, "CDATA", "package auth", "</files>"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("bundle missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnalyzerOracle_EmptyAnswerIsError(t *testing.T) {
	client := &mockLLM{reply: "   \n"}
	oracle := oraclellm.NewAnalyzerOracle(client)

	_, err := oracle.Analyze(context.Background(), recall.AnalyzerRequest{
		Question:  "q",
		Fragments: []*recall.Fragment{recall.NewFragment("a.go", "x")},
	})
	if !errx.IsCode(err, oraclellm.ErrEmptyAnswer) {
		t.Fatalf("expected empty-answer error, got %v", err)
	}
}
