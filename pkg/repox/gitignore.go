package repox

import (
	"context"
	"path"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/Abraxas-365/coderecall/pkg/fsx"
)

// ignoreCache manages nested .gitignore files throughout a repository.
// It lazily compiles gitignore files as directories are visited and checks
// paths against every applicable one on the way back up to the root.
type ignoreCache struct {
	fs      fsx.PathReader
	cache   map[string]*ignore.GitIgnore // rel dir path -> compiled gitignore
	visited map[string]struct{}
}

func newIgnoreCache(fs fsx.PathReader) *ignoreCache {
	return &ignoreCache{
		fs:      fs,
		cache:   make(map[string]*ignore.GitIgnore),
		visited: make(map[string]struct{}),
	}
}

// visitDir compiles dir's .gitignore, if one exists and dir was not seen yet.
// dir is relative to the repository root ("." for the root itself).
func (c *ignoreCache) visitDir(ctx context.Context, dir string) {
	if _, seen := c.visited[dir]; seen {
		return
	}
	c.visited[dir] = struct{}{}

	data, err := c.fs.ReadFile(ctx, c.fs.Join(dir, ".gitignore"))
	if err != nil {
		return
	}
	gi := ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	c.cache[dir] = gi
}

// shouldIgnore checks relPath against every cached .gitignore above it.
func (c *ignoreCache) shouldIgnore(relPath string) bool {
	if len(c.cache) == 0 {
		return false
	}

	dir := path.Dir(relPath)
	for {
		if gi, ok := c.cache[dir]; ok {
			rel := relPath
			if dir != "." {
				rel = strings.TrimPrefix(relPath, dir+"/")
			}
			if gi.MatchesPath(rel) {
				return true
			}
		}
		if dir == "." {
			break
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}
