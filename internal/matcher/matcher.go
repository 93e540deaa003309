// Package matcher turns a package search term into a name predicate.
//
// A term is one of:
//
//   - a regular expression (regex mode), matched from the start of the name;
//   - a shell glob, when it contains any of "[?*", matched against the whole name;
//   - a literal, matched against the end of the name, so "foo" matches "foo"
//     and "libfoo" but not "foobar".
package matcher

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/frederic-klein/susepkg/internal/errs"
)

const globMeta = "[?*"

// Matcher reports whether package names match a search term.
type Matcher struct {
	re          *regexp.Regexp
	glob        string
	insensitive bool
}

// Compile builds a Matcher for pattern.
func Compile(pattern string, insensitive, isRegex bool) (*Matcher, error) {
	var expr string
	switch {
	case isRegex:
		expr = `^(?:` + pattern + `)`
	case strings.ContainsAny(pattern, globMeta):
		glob := pattern
		if insensitive {
			glob = strings.ToLower(glob)
		}
		if !doublestar.ValidatePattern(glob) {
			return nil, invalid(pattern, nil)
		}
		return &Matcher{glob: glob, insensitive: insensitive}, nil
	default:
		expr = regexp.QuoteMeta(pattern) + `$`
	}

	if insensitive {
		expr = `(?i)` + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, invalid(pattern, err)
	}
	return &Matcher{re: re, insensitive: insensitive}, nil
}

// Match reports whether name matches.
func (m *Matcher) Match(name string) bool {
	if m.re != nil {
		return m.re.MatchString(name)
	}
	if m.insensitive {
		name = strings.ToLower(name)
	}
	ok, err := doublestar.Match(m.glob, name)
	return err == nil && ok
}

func (m *Matcher) String() string {
	if m.re != nil {
		return m.re.String()
	}
	return m.glob
}

var nameRun = regexp.MustCompile(`[\w-]+`)

// BareName returns the longest run of word characters and hyphens in
// pattern, for backends that only take a plain substring. The first run wins
// ties; ok is false when there is none.
func BareName(pattern string) (name string, ok bool) {
	for _, run := range nameRun.FindAllString(pattern, -1) {
		if len(run) > len(name) {
			name = run
		}
	}
	return name, name != ""
}

func invalid(pattern string, err error) error {
	return &errs.Error{Op: "matcher.Compile", Kind: errs.ErrInvalid, Message: "Invalid package: " + pattern, Inner: err}
}
