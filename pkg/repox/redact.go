package repox

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// SecretBlocklistGlobs match file names that are never loaded, regardless
// of content, unless secrets are explicitly allowed.
var SecretBlocklistGlobs = []string{
	".env*",
	"*.pem",
	"id_rsa*",
	"secrets.*",
	"*.key",
	"*.p12",
	"*.keystore",
}

// credentialStoreMarkers are path substrings of well-known credential stores.
var credentialStoreMarkers = []string{"aws/credentials", "gcp/", "gcloud/"}

// IsSecretPath reports whether a relative path matches the secret blocklist.
func IsSecretPath(relPath string) bool {
	p := strings.ReplaceAll(relPath, "\\", "/")
	base := path.Base(p)
	for _, pat := range SecretBlocklistGlobs {
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	lower := strings.ToLower(p)
	for _, marker := range credentialStoreMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ════════════════════════════════════════════════════════════════════════════
// High-Entropy Redaction
// ════════════════════════════════════════════════════════════════════════════

const (
	redactMinTokenLen      = 20
	redactEntropyThreshold = 3.7
	redactedPlaceholder    = "‹REDACTED›"
)

// ShannonEntropy returns the bits-per-character entropy of s.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	n := 0
	for _, ch := range s {
		freq[ch]++
		n++
	}
	ent := 0.0
	for _, c := range freq {
		p := float64(c) / float64(n)
		ent -= p * math.Log2(p)
	}
	return ent
}

func isTokenRune(ch rune) bool {
	if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
		return true
	}
	switch ch {
	case '_', '-', '.', '+', '/', '=':
		return true
	}
	return false
}

// RedactHighEntropy replaces long high-entropy tokens (likely credentials)
// with a placeholder. Line numbers are preserved, columns are not. Returns
// the redacted text and the number of replacements.
func RedactHighEntropy(s string) (string, int) {
	var out strings.Builder
	var token []rune
	count := 0

	flush := func() {
		t := string(token)
		if len(token) >= redactMinTokenLen && ShannonEntropy(t) >= redactEntropyThreshold {
			out.WriteString(redactedPlaceholder)
			count++
		} else {
			out.WriteString(t)
		}
		token = token[:0]
	}

	for _, ch := range s {
		if isTokenRune(ch) {
			token = append(token, ch)
		} else {
			flush()
			out.WriteRune(ch)
		}
	}
	flush()

	if count == 0 {
		return s, 0
	}
	return out.String(), count
}

// HumanSize formats a byte count for log output (e.g. "1.5KB").
func HumanSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	x := float64(n)
	i := 0
	for x >= 1024 && i < len(units)-1 {
		x /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%dB", int64(x))
	}
	return fmt.Sprintf("%.1f%s", x, units[i])
}
