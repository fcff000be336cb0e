package recall

import (
	"path"
	"regexp"
	"strings"
)

// Import-like statements across the common ecosystems. Matching is
// deliberately loose: the expansion only widens the truncation fallback,
// so a spurious reference costs nothing beyond a failed path lookup.
var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:import|require)\s*\(|\bfrom\s+['"][^'"]+['"]`),  // JS/TS
	regexp.MustCompile(`(?m)^\s*(?:from\s+[.\w]+\s+import|import\s+[.\w]+)`), // Python
	regexp.MustCompile(`(?m)^\s*import\s*\(|^\s*import\s+"[^"]+"`),           // Go
	regexp.MustCompile(`(?m)^\s*use\s+[a-zA-Z0-9_:]+`),                       // Rust
	regexp.MustCompile(`(?m)^\s*#\s*include\s+[<"].+[>"]`),                   // C/C++
	regexp.MustCompile(`(?m)^\s*import\s+[a-zA-Z0-9_.]+;`),                   // Java/Kotlin
}

var (
	quotedRef = regexp.MustCompile(`['"]([^'"]+)['"]`)
	refWord   = regexp.MustCompile(`[A-Za-z0-9_./-]+`)
)

const minRefWordLen = 3

// collectImportRefs extracts import-like references from content. Quoted
// paths are taken verbatim; unquoted statements fall back to their
// identifier-like words.
func collectImportRefs(text string) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, rx := range importPatterns {
		for _, m := range rx.FindAllString(text, -1) {
			if q := quotedRef.FindStringSubmatch(m); q != nil {
				refs[q[1]] = struct{}{}
				continue
			}
			for _, w := range refWord.FindAllString(m, -1) {
				if len(w) >= minRefWordLen && !isDigits(w) {
					refs[w] = struct{}{}
				}
			}
		}
	}
	return refs
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// expandImports resolves the import references of the curated fragments
// against the full corpus and returns the referenced fragments not already
// curated, in corpus order. Resolution matches by base file name, the
// rough heuristic that works without a per-language module resolver.
func expandImports(curated, corpus []*Fragment) []*Fragment {
	have := make(map[string]struct{}, len(curated))
	refs := make(map[string]struct{})
	for _, f := range curated {
		have[basePath(f.Path())] = struct{}{}
		for r := range collectImportRefs(f.Content()) {
			refs[r] = struct{}{}
		}
	}

	bases := make(map[string]struct{}, len(refs))
	for r := range refs {
		base := strings.ToLower(path.Base(r))
		if base != "" && base != "." && base != "/" {
			bases[base] = struct{}{}
		}
	}
	if len(bases) == 0 {
		return nil
	}

	var out []*Fragment
	for _, f := range corpus {
		if _, ok := have[basePath(f.Path())]; ok {
			continue
		}
		pl := strings.ToLower(f.Path())
		for base := range bases {
			if pl == base || strings.HasSuffix(pl, "/"+base) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// basePath strips a line-range suffix from a split fragment identity.
func basePath(p string) string {
	if i := strings.IndexByte(p, '#'); i >= 0 {
		return p[:i]
	}
	return p
}
