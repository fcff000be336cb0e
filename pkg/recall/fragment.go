// Package recall implements token-budgeted hierarchical selection: given a
// corpus of file fragments too large for one model context, a question, and
// a cheap high-context relevance oracle, it curates a subset that is both
// relevant and guaranteed to fit a more expensive analyzer oracle's budget.
package recall

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// Fragment is one immutable unit of repository content identified by a
// stable path. The token count is computed at most once and memoized;
// fragments are safe to share read-only across concurrent oracle calls.
type Fragment struct {
	path    string
	content string

	countOnce sync.Once
	tokens    int
}

// NewFragment creates a fragment for path holding content.
func NewFragment(path, content string) *Fragment {
	return &Fragment{path: path, content: content}
}

// Path returns the fragment's stable identity.
func (f *Fragment) Path() string { return f.path }

// Content returns the fragment text.
func (f *Fragment) Content() string { return f.content }

// ByteLen returns the content length in bytes.
func (f *Fragment) ByteLen() int { return len(f.content) }

// Tokens returns the token count of the content, computing it on first use.
func (f *Fragment) Tokens(counter tokenx.Counter) int {
	f.countOnce.Do(func() {
		f.tokens = counter.Count(f.content)
	})
	return f.tokens
}

// sumTokens totals the token counts of fragments.
func sumTokens(fragments []*Fragment, counter tokenx.Counter) int {
	total := 0
	for _, f := range fragments {
		total += f.Tokens(counter)
	}
	return total
}

// splitByLines cuts a fragment into sub-fragments of at most maxTokens
// each, breaking at line boundaries. Sub-fragment paths carry a line-range
// suffix so identities stay stable and distinct. A single line that alone
// exceeds maxTokens becomes its own sub-fragment, still over the limit; the
// caller decides what to do with it.
func splitByLines(f *Fragment, maxTokens int, counter tokenx.Counter) []*Fragment {
	lines := strings.SplitAfter(f.content, "\n")

	var out []*Fragment
	var buf strings.Builder
	bufTokens := 0
	startLine := 1
	lineNo := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		path := fragmentRangePath(f.path, startLine, lineNo)
		out = append(out, NewFragment(path, buf.String()))
		buf.Reset()
		bufTokens = 0
		startLine = lineNo + 1
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		lineNo++
		lineTokens := counter.Count(line)
		if bufTokens > 0 && bufTokens+lineTokens > maxTokens {
			lineNo--
			flush()
			lineNo++
		}
		buf.WriteString(line)
		bufTokens += lineTokens
	}
	flush()

	if len(out) == 0 {
		return []*Fragment{f}
	}
	return out
}

func fragmentRangePath(path string, from, to int) string {
	return fmt.Sprintf("%s#L%d-L%d", path, from, to)
}
