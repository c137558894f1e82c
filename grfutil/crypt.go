package grfutil

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rorebuild/grf"
)

// CryptFilename is the name of the file holding the encryption rules. It
// should be at the root of the directory to be packed.
const CryptFilename = ".grfcrypt"

// Crypt is a list of rules selecting the encryption mode of packed files. The
// rules are matched in reverse order, i.e., the last one takes effect. Files
// matching no rule are not encrypted.
type Crypt struct {
	rules []cryptRule
}

type cryptRule struct {
	// Glob is matched with [MatchGlob]. The special glob "/"
	// matches everything. It must not contain whitespace.
	Glob string

	Mode grf.Encryption
}

func checkLiteralGlob(path string) error {
	if strings.ContainsFunc(path, unicode.IsSpace) {
		return fmt.Errorf("path contains whitespace")
	}
	if strings.ContainsAny(path, "#") {
		return fmt.Errorf("path contains comment character")
	}
	if strings.ContainsAny(path, "?*\\[") {
		return fmt.Errorf("path contains special glob character")
	}
	return nil
}

// Add appends a new rule.
func (v *Crypt) Add(glob string, mode grf.Encryption) error {
	if strings.ContainsFunc(glob, unicode.IsSpace) {
		return fmt.Errorf("glob contains whitespace")
	}
	if glob == "" {
		return fmt.Errorf("glob is empty")
	}
	v.rules = append(v.rules, cryptRule{
		Glob: glob,
		Mode: mode,
	})
	return nil
}

// GenerateExplicit replaces the rules with one for each file in es.
func (v *Crypt) GenerateExplicit(es []grf.Entry) error {
	var rules []cryptRule
	for _, e := range es {
		if e.IsDir() {
			continue
		}
		mode, err := e.Flags.Encryption()
		if err != nil {
			return fmt.Errorf("entry %q: %w", e.Path, err)
		}
		if err := checkLiteralGlob(e.Path); err != nil {
			return fmt.Errorf("entry %q: cannot add to %s: %w", e.Path, CryptFilename, err)
		}
		rules = append(rules, cryptRule{"/" + e.Path, mode})
	}
	v.rules = rules
	return nil
}

// Generate replaces the rules with a minimal set for the files in es, where
// each directory takes the most common mode of the files under it and only
// the exceptions are listed.
func (v *Crypt) Generate(es []grf.Entry) error {
	type node struct {
		mode     grf.Encryption
		children map[string]*node
		freq     map[grf.Encryption]int
	}
	newDir := func() *node {
		return &node{
			children: map[string]*node{},
			freq:     map[grf.Encryption]int{},
		}
	}
	root := newDir()

	for _, e := range es {
		if e.IsDir() {
			continue
		}
		mode, err := e.Flags.Encryption()
		if err != nil {
			return fmt.Errorf("entry %q: %w", e.Path, err)
		}
		segs := strings.Split(e.Path, "/")
		cur := root
		for i, seg := range segs {
			cur.freq[mode]++
			next, ok := cur.children[seg]
			if !ok {
				if i == len(segs)-1 {
					next = &node{mode: mode}
				} else {
					next = newDir()
				}
				cur.children[seg] = next
			}
			cur = next
		}
	}

	// consolidate breadth-first, ties going to the lowest mode
	for queue := []*node{root}; len(queue) != 0; {
		cur := queue[0]
		queue = queue[1:]
		if cur.children == nil {
			continue
		}
		var best int
		for mode, n := range cur.freq {
			if n > best || (n == best && mode < cur.mode) {
				best, cur.mode = n, mode
			}
		}
		for _, c := range cur.children {
			queue = append(queue, c)
		}
	}

	var rules []cryptRule
	var walk func(path string, cur, parent *node) error
	walk = func(path string, cur, parent *node) error {
		if parent == nil || parent.mode != cur.mode {
			if err := checkLiteralGlob(path); err != nil {
				return fmt.Errorf("path %q: cannot add to %s: %w", path, CryptFilename, err)
			}
			rules = append(rules, cryptRule{path, cur.mode})
		}
		segs := make([]string, 0, len(cur.children))
		for seg := range cur.children {
			segs = append(segs, seg)
		}
		sort.Strings(segs)
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		for _, seg := range segs {
			if err := walk(path+seg, cur.children[seg], cur); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("/", root, nil); err != nil {
		return err
	}

	v.rules = rules
	return nil
}

// Test ensures the rules reproduce the encryption of the files in es.
func (v Crypt) Test(es []grf.Entry) error {
	for _, e := range es {
		if e.IsDir() {
			continue
		}
		mode, err := e.Flags.Encryption()
		if err != nil {
			return fmt.Errorf("entry %q: %w", e.Path, err)
		}
		if act, rule := v.match(e.Path); act != mode {
			if rule != -1 {
				return fmt.Errorf("entry %q: has encryption %s, rules have incorrect %s (rule %d: %s)", e.Path, mode, act, rule, v.rules[rule])
			}
			return fmt.Errorf("entry %q: has encryption %s, rules have incorrect %s (no rule matched)", e.Path, mode, act)
		}
	}
	return nil
}

// Match returns the encryption mode for the provided path.
func (v Crypt) Match(path string) grf.Encryption {
	mode, _ := v.match(path)
	return mode
}

func (v Crypt) match(path string) (mode grf.Encryption, rule int) {
	for i := len(v.rules) - 1; i >= 0; i-- {
		if m, _ := MatchGlob(v.rules[i].Glob, path); m {
			return v.rules[i].Mode, i
		}
	}
	return grf.EncryptNone, -1
}

// String returns a string which can later be parsed by Parse.
func (v Crypt) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %s\n", "# mode", "path (last match wins, / to anchor, * supported)")
	for _, rule := range v.rules {
		b.WriteString(rule.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (v cryptRule) String() string {
	return fmt.Sprintf("%-8s %s", v.Mode, v.Glob)
}

// Parse parses encryption rules, replacing any existing rules.
func (v *Crypt) Parse(s string) error {
	var rules []cryptRule
	var lineNo int

	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		lineNo++

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 2 fields (mode glob), got %d (note that the glob must not contain whitespace)", lineNo, len(fields))
		}
		mode, err := grf.ParseEncryption(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, cryptRule{fields[1], mode})
	}
	if err := sc.Err(); err != nil {
		return err
	}

	v.rules = rules
	return nil
}

// ParseFile is like Parse, but reads from a file.
func (v *Crypt) ParseFile(name string) error {
	buf, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	return v.Parse(string(buf))
}
