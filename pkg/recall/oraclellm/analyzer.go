package oraclellm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/coderecall/pkg/ai/llm"
	"github.com/Abraxas-365/coderecall/pkg/recall"
)

const analyzerSystem = `You are a senior staff-level engineer.
Use the provided files (CXML blocks) and answer the user's question precisely and concisely.
If the answer may depend on omitted code, call it out explicitly.`

// AnalyzerOracle produces the final answer from the curated content with
// a single expensive chat model call.
type AnalyzerOracle struct {
	client llm.Client
	s      settings
}

// NewAnalyzerOracle builds an analyzer oracle over client.
func NewAnalyzerOracle(client llm.Client, opts ...Option) *AnalyzerOracle {
	return &AnalyzerOracle{
		client: client,
		s:      newSettings(0.2, opts...),
	}
}

// Analyze implements recall.AnalyzerOracle.
func (o *AnalyzerOracle) Analyze(ctx context.Context, req recall.AnalyzerRequest) (string, error) {
	messages := []llm.Message{
		llm.NewSystemMessage(analyzerSystem),
		llm.NewUserMessage(analyzerUserPrompt(req)),
	}

	resp, err := o.s.chat(ctx, o.client, messages)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", errorRegistry.New(ErrEmptyAnswer)
	}
	return answer, nil
}

func analyzerUserPrompt(req recall.AnalyzerRequest) string {
	var b strings.Builder
	b.WriteString(req.Question)
	b.WriteString("\n\n")
	b.WriteString(cxmlBundle(req.Fragments))
	return b.String()
}

// cxmlBundle renders fragments as CXML document blocks.
func cxmlBundle(fragments []*recall.Fragment) string {
	var b strings.Builder
	b.WriteString("<files>\n")
	for _, f := range fragments {
		fmt.Fprintf(&b, "  <file path=%q>\n", f.Path())
		b.WriteString("  <![CDATA[\n")
		b.WriteString(f.Content())
		b.WriteString("\n  ]]>\n  </file>\n")
	}
	b.WriteString("</files>")
	return b.String()
}
