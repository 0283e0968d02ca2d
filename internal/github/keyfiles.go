package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/gather"
)

const (
	// MaxKeyFiles is the most files selected per repository
	MaxKeyFiles = 10
	// maxKeyFileSize skips blobs larger than this many bytes
	maxKeyFileSize = 100 * 1024
	// maxKeyFileChars truncates decoded file content
	maxKeyFileChars = 20000
)

var manifestNames = map[string]bool{
	"package.json":     true,
	"go.mod":           true,
	"requirements.txt": true,
	"pyproject.toml":   true,
	"setup.py":         true,
	"cargo.toml":       true,
	"pom.xml":          true,
	"build.gradle":     true,
	"gemfile":          true,
	"composer.json":    true,
	"dockerfile":       true,
	"makefile":         true,
	"tsconfig.json":    true,
}

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".rs": true, ".java": true, ".kt": true, ".rb": true, ".php": true, ".cs": true,
	".c": true, ".cc": true, ".cpp": true, ".h": true, ".swift": true, ".scala": true,
	".ex": true, ".vue": true, ".svelte": true,
}

var skippedDirs = []string{"node_modules/", "vendor/", "dist/", "build/", ".git/", "third_party/"}

// FetchKeyFiles walks the repository tree, selects up to MaxKeyFiles interesting files and
// fetches their content. Files whose content cannot be fetched are omitted.
func (c *Client) FetchKeyFiles(ctx context.Context, name string) ([]KeyFile, error) {
	var tree treeResponse
	if _, err := c.getJSON(ctx, c.repoPath(name, "git", "trees", "HEAD"), url.Values{"recursive": {"1"}}, &tree); err != nil {
		return nil, err
	}

	selected := SelectKeyFiles(tree.Tree, MaxKeyFiles)
	out := gather.All(ctx, selected, 4, func(ctx context.Context, entry treeEntry) (KeyFile, error) {
		content, err := c.fetchBlob(ctx, name, entry.SHA)
		if err != nil {
			return KeyFile{}, err
		}
		return KeyFile{Path: entry.Path, Content: content}, nil
	})
	for _, f := range out.Failures {
		c.logger.Warn("key file fetch failed", zap.String("repo", name), zap.String("path", selected[f.Index].Path), zap.Error(f.Err))
	}
	return out.Values(), nil
}

func (c *Client) fetchBlob(ctx context.Context, repo, sha string) (string, error) {
	var blob blobResponse
	if _, err := c.getJSON(ctx, c.repoPath(repo, "git", "blobs", sha), nil, &blob); err != nil {
		return "", err
	}
	if blob.Encoding != "base64" {
		return truncate(blob.Content, maxKeyFileChars), nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode blob %s: %w", sha, err)
	}
	return truncate(string(raw), maxKeyFileChars), nil
}

// SelectKeyFiles picks manifests first, then source files under src/ or lib/, up to limit
func SelectKeyFiles(entries []treeEntry, limit int) []treeEntry {
	var manifests, sources []treeEntry
	for _, e := range entries {
		if e.Type != "blob" || e.Size > maxKeyFileSize || inSkippedDir(e.Path) {
			continue
		}
		base := strings.ToLower(path.Base(e.Path))
		switch {
		case manifestNames[base]:
			manifests = append(manifests, e)
		case inSourceDir(e.Path) && codeExtensions[strings.ToLower(path.Ext(e.Path))]:
			if strings.HasSuffix(base, ".min.js") {
				continue
			}
			sources = append(sources, e)
		}
	}

	selected := append(manifests, sources...)
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func inSourceDir(p string) bool {
	return strings.HasPrefix(p, "src/") || strings.HasPrefix(p, "lib/") ||
		strings.Contains(p, "/src/") || strings.Contains(p, "/lib/")
}

func inSkippedDir(p string) bool {
	for _, dir := range skippedDirs {
		if strings.HasPrefix(p, dir) || strings.Contains(p, "/"+dir) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
