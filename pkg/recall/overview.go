package recall

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Abraxas-365/coderecall/pkg/repox"
	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

// OverviewOptions bounds the structural summary. Zero values take defaults.
type OverviewOptions struct {
	TreeDepth int // directory levels before collapse, default 4
	MaxLines  int // hard line cap on the tree, default 2000
	MaxTokens int // token cap on the whole overview; 0 means uncapped
}

const (
	defaultTreeDepth = 4
	defaultMaxLines  = 2000
)

// Overview is the read-only run summary every selector call shares: README
// content first, then a compact directory tree with per-directory file
// counts and sizes. Built once per run, deterministic for a given
// fragment set.
type Overview struct {
	text   string
	tokens int
}

// Text returns the rendered overview.
func (o *Overview) Text() string { return o.text }

// Tokens returns the overview's token cost.
func (o *Overview) Tokens() int { return o.tokens }

// BuildOverview renders a bounded overview of the fragment set. When the
// token cap forces truncation, the tree loses depth before breadth: whole
// deeper levels are dropped while every top-level directory stays visible.
func BuildOverview(fragments []*Fragment, counter tokenx.Counter, opts OverviewOptions) *Overview {
	if opts.TreeDepth <= 0 {
		opts.TreeDepth = defaultTreeDepth
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = defaultMaxLines
	}

	var sections []string

	budget := opts.MaxTokens
	spend := func(text string) bool {
		if opts.MaxTokens == 0 {
			return true
		}
		cost := counter.Count(text)
		if cost > budget {
			return false
		}
		budget -= cost
		return true
	}

	if readmes := readmeSection(fragments); readmes != "" && spend(readmes) {
		sections = append(sections, readmes)
	}

	tree := buildTree(fragments, opts, counter, budget)
	sections = append(sections, "COMPACT DIRECTORY TREE (counts, sizes):\n"+tree)

	text := strings.Join(sections, "\n\n")
	return &Overview{text: text, tokens: counter.Count(text)}
}

func readmeSection(fragments []*Fragment) string {
	var parts []string
	for _, f := range fragments {
		if strings.HasPrefix(strings.ToUpper(path.Base(f.Path())), "README") {
			parts = append(parts, fmt.Sprintf("## %s\n%s", f.Path(), f.Content()))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "READMEs:\n" + strings.Join(parts, "\n")
}

type dirStat struct {
	files int
	size  int
}

// buildTree renders directories level by level so a token cap cuts depth,
// not breadth.
func buildTree(fragments []*Fragment, opts OverviewOptions, counter tokenx.Counter, tokenBudget int) string {
	stats := make(map[string]*dirStat)
	stats["."] = &dirStat{}

	for _, f := range fragments {
		dir := path.Dir(f.Path())
		if _, ok := stats[dir]; !ok {
			stats[dir] = &dirStat{}
		}
		stats[dir].files++
		stats[dir].size += f.ByteLen()

		// Ensure every ancestor exists even if it holds no direct files.
		for d := dir; d != "."; d = path.Dir(d) {
			if _, ok := stats[d]; !ok {
				stats[d] = &dirStat{}
			}
		}
	}

	byLevel := make(map[int][]string)
	for dir := range stats {
		byLevel[dirLevel(dir)] = append(byLevel[dirLevel(dir)], dir)
	}

	var lines []string
	truncated := false

	for level := 0; level < opts.TreeDepth; level++ {
		dirs := byLevel[level]
		if len(dirs) == 0 {
			if level > 0 {
				break
			}
			continue
		}
		sort.Strings(dirs)

		var levelLines []string
		for _, dir := range dirs {
			st := stats[dir]
			levelLines = append(levelLines, fmt.Sprintf("%s/ (files=%d, size=%s)",
				dir, st.files, repox.HumanSize(int64(st.size))))
		}

		if len(lines)+len(levelLines) > opts.MaxLines {
			truncated = true
			break
		}
		levelText := strings.Join(levelLines, "\n")
		if opts.MaxTokens != 0 {
			cost := counter.Count(levelText)
			if cost > tokenBudget {
				truncated = true
				break
			}
			tokenBudget -= cost
		}

		// Re-sort the combined listing so nested dirs appear under their
		// parents rather than grouped by level.
		lines = append(lines, levelLines...)
	}

	sort.Strings(lines)
	if truncated {
		lines = append(lines, "… (truncated)")
	}
	return strings.Join(lines, "\n")
}

func dirLevel(dir string) int {
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
