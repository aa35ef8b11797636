// Package preprocess resolves `#include "path"` directives, textually
// splicing included file contents before lexing. Grounded on spec.md
// §4.1; the teacher repo has no preprocessor, so this package follows the
// wrapped-sentinel-error idiom of pkg/asm/instruction.go instead.
package preprocess

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrIncludeNotFound indicates that an #include directive named a file
// that could not be opened.
var ErrIncludeNotFound = errors.New("preprocess: include file not found")

// ErrIncludeUnreadable indicates that an #include directive named a file
// that exists but could not be read to completion.
var ErrIncludeUnreadable = errors.New("preprocess: include file unreadable")

var includeRe = regexp.MustCompile(`#include\s+"([^"]*)"`)

// Opener reads the contents of the named path, resolved by the caller.
type Opener func(path string) (io.Reader, error)

// Expand reads the file at path via open, recursively splicing the
// contents of every #include directive it contains, and returns the fully
// expanded text. Each path is visited at most once: a directive naming an
// already-visited path is replaced with empty text instead of being
// re-expanded or rejected, which also breaks #include cycles.
func Expand(path string, open Opener) (string, error) {
	visited := make(map[string]bool)
	return expand(path, open, visited)
}

func expand(path string, open Opener, visited map[string]bool) (string, error) {
	clean := filepath.Clean(path)
	if visited[clean] {
		return "", nil
	}
	visited[clean] = true

	r, err := open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIncludeNotFound, path)
	}
	text, err := readAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIncludeUnreadable, path)
	}

	dir := filepath.Dir(path)
	var out strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := includeRe.FindStringSubmatch(line); m != nil {
			includePath := filepath.Join(dir, m[1])
			expanded, err := expand(includePath, open, visited)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
		} else {
			out.WriteString(line)
		}
		if i != len(lines)-1 {
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

func readAll(r io.Reader) (string, error) {
	var sb strings.Builder
	br := bufio.NewReader(r)
	if _, err := io.Copy(&sb, br); err != nil {
		return "", err
	}
	return sb.String(), nil
}
