package grfutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rorebuild/grf"
)

// IgnoreFilename is the name of the ignore file. It should be at the root of
// the directory to be packed.
const IgnoreFilename = ".grfignore"

// Ignore is a list of patterns to ignore when packing a directory, in a
// similar fashion to gitignore.
//
// Each pattern is a case-insensitive glob (see [MatchGlob]),
// optionally negated with a leading exclamation mark.
//
// Rules are checked from top to bottom. A matching rule tentatively excludes
// the file unless a negated rule afterwards also matches it. Once a negated
// rule matches, no further rules are processed.
type Ignore struct {
	rules []ignoreRule
}

type ignoreRule struct {
	Glob   string
	Negate bool
}

// AddDefault adds the generated files and common editor and OS clutter.
func (v *Ignore) AddDefault() {
	for _, g := range []string{
		"*.grf",
		"*.gpf",
		"/.grf*",
		".nfs*",
		".directory",
		"Thumbs.db",
		"Desktop.ini",
		"ehthumbs.db",
		".DS_Store",
		".AppleDouble",
		".Spotlight-V100",
		".Trashes",
		".vscode",
		".idea",
		".git*",
		"[._]*.s[a-v][a-z]",
		"*.swp",
		"*.part",
		"._*",
		"~*",
		"*~",
	} {
		v.rules = append(v.rules, ignoreRule{g, false})
	}
}

// Add adds a rule.
func (v *Ignore) Add(glob string, negate bool) error {
	if strings.HasPrefix(glob, "!") {
		return fmt.Errorf("glob starts with negation character")
	}
	if strings.ContainsAny(glob, "#") {
		return fmt.Errorf("glob contains comment character")
	}
	if strings.ContainsAny(glob, "\n\r") {
		return fmt.Errorf("glob contains newlines or carriage returns")
	}
	if strings.TrimSpace(glob) != glob {
		return fmt.Errorf("glob contains leading or trailing whitespace")
	}
	v.rules = append(v.rules, ignoreRule{
		Glob:   glob,
		Negate: negate,
	})
	return nil
}

// AddAutoExclusions adds negated rules for archive files which would
// otherwise be ignored, so unpacking and packing again keeps them.
func (v *Ignore) AddAutoExclusions(es []grf.Entry) error {
	for _, e := range es {
		if e.IsDir() || !v.Match(e.Path) {
			continue
		}
		if strings.ContainsAny(e.Path, "?*\\[#") {
			return fmt.Errorf("entry %q: path contains special glob character", e.Path)
		}
		if err := v.Add("/"+e.Path, true); err != nil {
			return fmt.Errorf("entry %q: %w", e.Path, err)
		}
	}
	return nil
}

// Match checks whether the provided path should be ignored.
func (v Ignore) Match(path string) bool {
	var excluding bool
	for _, rule := range v.rules {
		if excluding != rule.Negate {
			continue // before an exclusion only exclusions apply, after it only negations
		}
		if m, _ := MatchGlob(rule.Glob, path); m {
			if rule.Negate {
				return false
			}
			excluding = true
		}
	}
	return excluding
}

// String returns a string which can later be parsed by Parse.
func (v Ignore) String() string {
	var b strings.Builder
	b.WriteString("# list of glob patterns to be excluded when packing the grf\n")
	b.WriteString("# - use a leading slash to anchor the path\n")
	b.WriteString("# - use an exclamation mark prefix to negate the pattern\n")
	b.WriteString("# - a matched rule excludes the file unless a negated rule afterwards also matches it\n")
	b.WriteString("\n")
	for _, rule := range v.rules {
		b.WriteString(rule.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (v ignoreRule) String() string {
	if v.Negate {
		return "!" + v.Glob
	}
	return v.Glob
}

// Parse parses an ignore file, replacing any existing rules.
func (v *Ignore) Parse(s string) error {
	var rules []ignoreRule

	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		glob, negate := strings.CutPrefix(line, "!")
		rules = append(rules, ignoreRule{
			Glob:   strings.TrimSpace(glob),
			Negate: negate,
		})
	}
	if err := sc.Err(); err != nil {
		return err
	}

	v.rules = rules
	return nil
}

// ParseFile is like Parse, but reads from a file.
func (v *Ignore) ParseFile(name string) error {
	buf, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	return v.Parse(string(buf))
}
