package app

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/winnowhq/winnow/domain"
)

// FileHelper matches configured globs against the project tree
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// BuildIgnorePredicate compiles ignore globs plus the project's .gitignore
// into a single predicate over absolute paths
func (h *FileHelper) BuildIgnorePredicate(root string, ignoreGlobs []string) domain.IgnorePredicate {
	lines := make([]string, 0, len(ignoreGlobs))
	lines = append(lines, ignoreGlobs...)

	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}

	matcher := gitignore.CompileIgnoreLines(lines...)
	return func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
		return matcher.MatchesPath(filepath.ToSlash(rel))
	}
}

// CollectFiles walks root and returns files whose root-relative path matches
// any glob and is not ignored. Results are sorted.
func (h *FileHelper) CollectFiles(root string, globs []string, ignore domain.IgnorePredicate) ([]string, error) {
	patterns := expandGlobs(globs)

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ignore != nil && ignore(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			// node_modules is never project source even without an
			// explicit ignore rule
			if info.Name() == "node_modules" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if matchGlob(pattern, rel) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FileExists reports whether path is an existing regular file
func (h *FileHelper) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandGlobs expands every {a,b,c} brace group into plain glob patterns
func expandGlobs(globs []string) []string {
	var out []string
	for _, glob := range globs {
		out = append(out, expandBraces(filepath.ToSlash(glob))...)
	}
	return out
}

func expandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	close := strings.IndexByte(pattern[open:], '}')
	if close < 0 {
		return []string{pattern}
	}
	close += open

	var out []string
	for _, alt := range strings.Split(pattern[open+1:close], ",") {
		expanded := pattern[:open] + alt + pattern[close+1:]
		out = append(out, expandBraces(expanded)...)
	}
	return out
}

// matchGlob matches a slash-separated relative path against a glob pattern
// supporting ** across directory boundaries
func matchGlob(pattern, path string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		// ** matches zero or more path segments
		for skip := 0; skip <= len(path); skip++ {
			if matchSegments(pattern[1:], path[skip:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if ok, err := filepath.Match(pattern[0], path[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}
