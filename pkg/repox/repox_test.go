package repox_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/coderecall/pkg/repox"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newScanner(t *testing.T, root string, opts repox.Options) *repox.Scanner {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(root)
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	return repox.NewScanner(fs, opts)
}

func paths(files []repox.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestScan_WalksAndSortsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/b.go", "package b\n")
	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "README.md", "# demo\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := paths(result.Files)
	want := []string{"README.md", "src/a.go", "src/b.go"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("files not sorted by path: got %v", got)
		}
	}
}

func TestScan_AppliesDefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "node_modules/dep/index.js", "x\n")
	writeFile(t, root, "logo.png", "binary\n")
	writeFile(t, root, "app.min.js", "minified\n")
	writeFile(t, root, ".git/config", "[core]\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := paths(result.Files)
	if len(got) != 1 || got[0] != "main.go" {
		t.Fatalf("excludes not applied, got %v", got)
	}
}

func TestScan_HonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated.go\nsub/vendor.js\n")
	writeFile(t, root, "kept.go", "package kept\n")
	writeFile(t, root, "generated.go", "package gen\n")
	writeFile(t, root, "sub/vendor.js", "x\n")
	writeFile(t, root, "sub/kept.js", "y\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := paths(result.Files)
	if contains(got, "generated.go") || contains(got, "sub/vendor.js") {
		t.Fatalf("gitignored files leaked: %v", got)
	}
	if !contains(got, "kept.go") || !contains(got, "sub/kept.js") {
		t.Fatalf("kept files missing: %v", got)
	}
}

func TestScan_HonorsNestedGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/.gitignore", "local.txt\n")
	writeFile(t, root, "sub/local.txt", "x\n")
	writeFile(t, root, "sub/code.go", "package sub\n")
	writeFile(t, root, "local.txt", "kept at root\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := paths(result.Files)
	if contains(got, "sub/local.txt") {
		t.Fatalf("nested gitignore not applied: %v", got)
	}
	if !contains(got, "local.txt") || !contains(got, "sub/code.go") {
		t.Fatalf("unrelated files missing: %v", got)
	}
}

func TestScan_BlocksSecretFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "TOKEN=abc\n")
	writeFile(t, root, "server.pem", "---\n")
	writeFile(t, root, "main.go", "package main\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(result.Files) != 1 || result.Files[0].Path != "main.go" {
		t.Fatalf("secret files leaked: %v", paths(result.Files))
	}
	if !contains(result.BlockedSecrets, ".env") || !contains(result.BlockedSecrets, "server.pem") {
		t.Fatalf("blocked list incomplete: %v", result.BlockedSecrets)
	}
}

func TestScan_AllowSecretsDisablesBlocklist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "TOKEN=abc\n")

	result, err := newScanner(t, root, repox.Options{AllowSecrets: true}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != ".env" {
		t.Fatalf("allow-secrets should load everything: %v", paths(result.Files))
	}
	if len(result.BlockedSecrets) != 0 {
		t.Fatalf("nothing should be blocked: %v", result.BlockedSecrets)
	}
}

func TestScan_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", strings.Repeat("x", 2000))
	writeFile(t, root, "small.txt", "ok\n")

	result, err := newScanner(t, root, repox.Options{FileCap: 1024}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != "small.txt" {
		t.Fatalf("oversized file leaked: %v", paths(result.Files))
	}
	if !contains(result.Oversized, "big.txt") {
		t.Fatalf("oversized list incomplete: %v", result.Oversized)
	}
}

func TestScan_RedactsLoadedContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.go", "var token = \"sk9Xq2Lm8Rz4Tv7Wn3Bc6Jf1Hd5Gp0Ky\"\n")

	result, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	f := result.Files[0]
	if f.Redactions != 1 {
		t.Fatalf("expected 1 redaction, got %d", f.Redactions)
	}
	if !strings.Contains(f.Content, "‹REDACTED›") {
		t.Fatalf("content not redacted:\n%s", f.Content)
	}
}

func TestScan_EmptyRepositoryIsError(t *testing.T) {
	root := t.TempDir()

	_, err := newScanner(t, root, repox.Options{}).Scan(context.Background())
	if !errx.IsCode(err, repox.ErrEmptyRepository) {
		t.Fatalf("expected empty-repository error, got %v", err)
	}
}
