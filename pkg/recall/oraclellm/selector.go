package oraclellm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abraxas-365/coderecall/pkg/ai/llm"
	"github.com/Abraxas-365/coderecall/pkg/recall"
)

const selectorSystem = `You are a codebase file selector optimizing for RECALL.
Goal: judge which of the given files likely contain information needed to answer the user's question.
When in doubt, mark a file relevant; the set is trimmed later by budget.
Respond with ONLY a JSON object of the form:
{"verdicts":[{"path":"<file path exactly as given>","relevant":true|false,"rationale":"<short reason>"}]}
Include one verdict for every file you were given and no others.`

// SelectorOracle judges fragment relevance with a chat model. It is cheap
// relative to the analyzer and is called once per group per round.
type SelectorOracle struct {
	client llm.Client
	s      settings
}

// NewSelectorOracle builds a selector oracle over client.
func NewSelectorOracle(client llm.Client, opts ...Option) *SelectorOracle {
	return &SelectorOracle{
		client: client,
		s:      newSettings(0, opts...),
	}
}

// Select implements recall.SelectorOracle.
func (o *SelectorOracle) Select(ctx context.Context, req recall.SelectorRequest) ([]recall.Verdict, error) {
	messages := []llm.Message{
		llm.NewSystemMessage(selectorSystem),
		llm.NewUserMessage(selectorUserPrompt(req)),
	}

	resp, err := o.s.chat(ctx, o.client, messages, llm.WithJSONResponseFormat())
	if err != nil {
		return nil, err
	}

	return parseVerdicts(resp.Text())
}

func selectorUserPrompt(req recall.SelectorRequest) string {
	var b strings.Builder
	b.WriteString(req.Question)
	b.WriteString("\n----\nPROJECT OVERVIEW:\n")
	b.WriteString(req.Overview)
	b.WriteString("\n----\nFILES:\n")
	for _, f := range req.Fragments {
		fmt.Fprintf(&b, "<file path=%q>\n%s\n</file>\n", f.Path(), f.Content())
	}
	b.WriteString("\nJudge every file above against the question.")
	return b.String()
}

type verdictPayload struct {
	Verdicts []struct {
		Path      string `json:"path"`
		Relevant  bool   `json:"relevant"`
		Rationale string `json:"rationale"`
	} `json:"verdicts"`
}

func parseVerdicts(text string) ([]recall.Verdict, error) {
	raw := stripFences(text)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Some models return the bare array.
		if arrErr := json.Unmarshal([]byte(raw), &payload.Verdicts); arrErr != nil {
			return nil, errorRegistry.NewWithCause(ErrMalformedResponse, err).
				WithDetail("response", truncateForDetail(raw))
		}
	}

	out := make([]recall.Verdict, 0, len(payload.Verdicts))
	for _, v := range payload.Verdicts {
		out = append(out, recall.Verdict{
			Path:      v.Path,
			Relevant:  v.Relevant,
			Rationale: v.Rationale,
		})
	}
	return out, nil
}

func truncateForDetail(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
