// Package repox loads the readable text of a repository: it walks the tree,
// applies exclude and .gitignore rules, blocks secret-looking files, and
// redacts high-entropy tokens from what it loads.
package repox

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/Abraxas-365/coderecall/pkg/asyncx"
	"github.com/Abraxas-365/coderecall/pkg/fsx"
	"github.com/Abraxas-365/coderecall/pkg/logx"
)

// DefaultExcludes are skipped during the walk: VCS metadata, build output,
// dependency trees, and binary asset extensions.
var DefaultExcludes = []string{
	".git/",
	".svn/",
	".hg/",
	"node_modules/",
	"dist/",
	"build/",
	".next/",
	".cache/",
	"coverage/",
	"target/",
	"out/",
	"__pycache__/",
	".venv/",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.pdf",
	"*.zip",
	"*.tar",
	"*.gz",
	"*.mp4",
	"*.mov",
	"*.ogg",
	"*.wav",
	"*.webm",
	"*.ico",
	"*.woff*",
	"*.min.*",
}

// DefaultFileCap is the per-file size limit in bytes.
const DefaultFileCap int64 = 512 * 1024

// DefaultMaxInFlight bounds concurrent file reads.
const DefaultMaxInFlight = 16

// File is one loaded repository file. Content is UTF-8 with invalid bytes
// replaced, and has already been through redaction.
type File struct {
	Path       string
	Size       int64
	Content    string
	Redactions int
}

// ScanResult is the outcome of a repository scan.
type ScanResult struct {
	Files          []File   // sorted by path
	BlockedSecrets []string // paths skipped by the secret blocklist
	Oversized      []string // paths skipped by the file size cap
}

// Options configures a Scanner. Zero values take defaults.
type Options struct {
	Excludes     []string // defaults to DefaultExcludes
	AllowSecrets bool     // disables the blocklist and redaction
	FileCap      int64    // defaults to DefaultFileCap
	MaxInFlight  int      // defaults to DefaultMaxInFlight
}

// Scanner walks and loads a repository through an fsx.PathReader.
type Scanner struct {
	fs   fsx.PathReader
	opts Options
}

// NewScanner creates a scanner over fs.
func NewScanner(fs fsx.PathReader, opts Options) *Scanner {
	if opts.Excludes == nil {
		opts.Excludes = DefaultExcludes
	}
	if opts.FileCap <= 0 {
		opts.FileCap = DefaultFileCap
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	return &Scanner{fs: fs, opts: opts}
}

// Scan walks the tree and loads every eligible file.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}

	ignores := newIgnoreCache(s.fs)
	var paths []string
	var sizes []int64

	var walk func(dir string) error
	walk = func(dir string) error {
		ignores.visitDir(ctx, dir)

		entries, err := s.fs.List(ctx, dir)
		if err != nil {
			return errorRegistry.NewWithCause(ErrWalkFailed, err).
				WithDetail("dir", dir)
		}

		for _, entry := range entries {
			rel := entry.Name
			if dir != "." {
				rel = s.fs.Join(dir, entry.Name)
			}

			if entry.IsDir {
				if s.isExcludedDir(entry.Name) || ignores.shouldIgnore(rel) {
					continue
				}
				if err := walk(rel); err != nil {
					return err
				}
				continue
			}

			if s.isExcludedFile(rel) || ignores.shouldIgnore(rel) {
				continue
			}

			if entry.Size > s.opts.FileCap {
				result.Oversized = append(result.Oversized, rel)
				logx.WithFields(logx.Fields{
					"path": rel,
					"size": HumanSize(entry.Size),
				}).Warn("skipping oversized file")
				continue
			}

			if !s.opts.AllowSecrets && IsSecretPath(rel) {
				result.BlockedSecrets = append(result.BlockedSecrets, rel)
				logx.WithField("path", rel).Warn("blocked secret-looking file")
				continue
			}

			paths = append(paths, rel)
			sizes = append(sizes, entry.Size)
		}
		return nil
	}

	if err := walk("."); err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, errorRegistry.New(ErrEmptyRepository)
	}

	files, err := s.load(ctx, paths, sizes)
	if err != nil {
		return nil, err
	}
	result.Files = files

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	sort.Strings(result.BlockedSecrets)
	sort.Strings(result.Oversized)
	return result, nil
}

// load reads and redacts files with bounded concurrency.
func (s *Scanner) load(ctx context.Context, paths []string, sizes []int64) ([]File, error) {
	type job struct {
		path string
		size int64
	}
	jobs := make([]job, len(paths))
	for i := range paths {
		jobs[i] = job{path: paths[i], size: sizes[i]}
	}

	return asyncx.Pool(ctx, s.opts.MaxInFlight, jobs, func(ctx context.Context, j job) (File, error) {
		data, err := s.fs.ReadFile(ctx, j.path)
		if err != nil {
			return File{}, errorRegistry.NewWithCause(ErrReadFailed, err).
				WithDetail("path", j.path)
		}

		content := strings.ToValidUTF8(string(data), "�")
		redactions := 0
		if !s.opts.AllowSecrets {
			content, redactions = RedactHighEntropy(content)
			if redactions > 0 {
				logx.WithFields(logx.Fields{
					"path":    j.path,
					"matches": redactions,
				}).Warn("redacted high-entropy tokens")
			}
		}

		return File{
			Path:       j.path,
			Size:       j.size,
			Content:    content,
			Redactions: redactions,
		}, nil
	})
}

func (s *Scanner) isExcludedDir(name string) bool {
	for _, pat := range s.opts.Excludes {
		if strings.HasSuffix(pat, "/") && name == strings.TrimSuffix(pat, "/") {
			return true
		}
	}
	return false
}

func (s *Scanner) isExcludedFile(relPath string) bool {
	base := path.Base(relPath)
	for _, pat := range s.opts.Excludes {
		if strings.HasSuffix(pat, "/") {
			continue
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	return false
}
