package dump

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// AcceptsFile reports whether a symbol declared in file passes a source
// prefix. Symbols with no known file always pass, as does every symbol when
// prefix is empty. The comparison is byte-exact.
func AcceptsFile(file, prefix string) bool {
	if prefix == "" || file == "" {
		return true
	}
	return strings.HasPrefix(file, prefix)
}

// Filter decides which symbols are dumped based on their declaring file. A
// nil *Filter accepts everything.
type Filter struct {
	prefix   string
	excludes *ignore.GitIgnore
}

// NewFilter returns a filter that keeps files under prefix and drops files
// matching any of the gitignore-style exclude patterns.
func NewFilter(prefix string, excludes []string) *Filter {
	f := &Filter{prefix: prefix}
	if len(excludes) > 0 {
		f.excludes = ignore.CompileIgnoreLines(excludes...)
	}
	return f
}

// Prefix returns the source prefix, which may be empty.
func (f *Filter) Prefix() string {
	if f == nil {
		return ""
	}
	return f.prefix
}

// Accepts reports whether a symbol declared in file is dumped. Exclude
// patterns are matched against the path with backslashes turned into
// slashes; the prefix is not normalized.
func (f *Filter) Accepts(file string) bool {
	if f == nil || file == "" {
		return true
	}
	if !AcceptsFile(file, f.prefix) {
		return false
	}
	if f.excludes != nil && f.excludes.MatchesPath(strings.ReplaceAll(file, `\`, "/")) {
		return false
	}
	return true
}
