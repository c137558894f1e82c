package grfutil

import (
	"fmt"

	"github.com/spf13/pflag"
)

// IncludeExclude filters archive paths using the provided globs.
type IncludeExclude struct {
	Exclude []string
	Include []string
}

// RegisterFlags adds --exclude and --include flags to set, optionally with
// the -e and -E shorthands.
func (ie *IncludeExclude) RegisterFlags(set *pflag.FlagSet, short bool) {
	const (
		excludeDoc = "Excludes files or directories matching the provided glob (anchor to the start with /)"
		includeDoc = "Negates --exclude for files or directories matching the provided glob (if only includes are provided, it excludes everything else)"
	)
	if short {
		set.StringSliceVarP(&ie.Exclude, "exclude", "e", nil, excludeDoc)
		set.StringSliceVarP(&ie.Include, "include", "E", nil, includeDoc)
	} else {
		set.StringSliceVar(&ie.Exclude, "exclude", nil, excludeDoc)
		set.StringSliceVar(&ie.Include, "include", nil, includeDoc)
	}
}

// Skip determines whether to skip the specified path.
func (ie IncludeExclude) Skip(name string) (bool, error) {
	var excluded bool
	for _, x := range ie.Exclude {
		if m, err := MatchGlob(x, name); err != nil {
			return false, fmt.Errorf("process excludes: match %q against glob %q: %w", name, x, err)
		} else if m {
			excluded = true
			break
		}
	}
	if len(ie.Exclude) == 0 && len(ie.Include) != 0 {
		excluded = true
	}
	for _, x := range ie.Include {
		if m, err := MatchGlob(x, name); err != nil {
			return false, fmt.Errorf("process includes: match %q against glob %q: %w", name, x, err)
		} else if m {
			excluded = false
			break
		}
	}
	return excluded, nil
}
