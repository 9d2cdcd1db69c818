package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"toolgate/pkg/coretools"
)

// localFS is the workspace-confined filesystem backend. Every path is
// resolved against the workspace root and rejected when it escapes it.
type localFS struct {
	root string
}

func newLocalFS(root string) *localFS {
	return &localFS{root: filepath.Clean(root)}
}

func (l *localFS) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("path must be a local file")
	}
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(l.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(l.root, candidate)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", path)
	}
	return candidate, nil
}

func (l *localFS) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	target, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	if offset <= 0 && limit <= 0 {
		return string(data), nil
	}

	lines := strings.Split(string(data), "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return "", nil
	}
	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return strings.Join(lines[offset:end], "\n"), nil
}

func (l *localFS) Write(ctx context.Context, path, content string) error {
	target, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.WriteFile(target, []byte(content), 0644)
}

func (l *localFS) Edit(ctx context.Context, path, oldText, newText string, replaceAll bool) (int, error) {
	target, err := l.resolve(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return 0, err
	}
	content := string(data)

	occurrences := strings.Count(content, oldText)
	if occurrences == 0 {
		return 0, fmt.Errorf("text not found in %s", path)
	}
	var updated string
	if replaceAll {
		updated = strings.ReplaceAll(content, oldText, newText)
	} else {
		updated = strings.Replace(content, oldText, newText, 1)
		occurrences = 1
	}
	if err := os.WriteFile(target, []byte(updated), 0644); err != nil {
		return 0, err
	}
	return occurrences, nil
}

func (l *localFS) List(ctx context.Context, dir string) ([]coretools.FileInfo, error) {
	target, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	out := make([]coretools.FileInfo, 0, len(entries))
	for _, e := range entries {
		info := coretools.FileInfo{Name: e.Name(), IsDir: e.IsDir()}
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		out = append(out, info)
	}
	return out, nil
}

func (l *localFS) Glob(ctx context.Context, root, pattern string) ([]string, error) {
	base, err := l.resolve(root)
	if err != nil {
		return nil, err
	}
	var matches []string
	err = filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return relErr
		}
		ok, matchErr := filepath.Match(pattern, filepath.Base(rel))
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			ok, _ = filepath.Match(pattern, rel)
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

func (l *localFS) Grep(ctx context.Context, root, pattern string) ([]coretools.GrepMatch, error) {
	base, err := l.resolve(root)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	var matches []coretools.GrepMatch
	err = filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				matches = append(matches, coretools.GrepMatch{Path: path, Line: i + 1, Text: line})
			}
		}
		return nil
	})
	return matches, err
}
