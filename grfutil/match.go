package grfutil

import (
	"fmt"
	"path"
	"strings"

	"github.com/rorebuild/grf"
)

// MatchGlob reports whether the archive path name, or any of its parent
// directories, matches pattern.
//
// Both are compared after grf.Clean, so matching is case-insensitive and
// backslashes work as separators. A pattern starting with a slash is anchored
// to the root and only tested against name and its parents; otherwise the
// base name of each of them is tested too. The pattern "/" matches
// everything, including the root.
func MatchGlob(pattern, name string) (bool, error) {
	anchored := strings.HasPrefix(pattern, "/") || strings.HasPrefix(pattern, `\`)
	if pattern = grf.Clean(pattern); pattern == "" {
		return anchored, nil
	}
	for p := grf.Clean(name); p != ""; {
		if m, err := path.Match(pattern, p); m || err != nil {
			return m, err
		}
		dir, base := path.Split(p)
		if !anchored {
			if m, err := path.Match(pattern, base); m || err != nil {
				return m, err
			}
		}
		p = strings.TrimSuffix(dir, "/")
	}
	return false, nil
}

// FormatSize formats a byte count with a decimal SI prefix.
func FormatSize(n int64) string {
	const unit = 1000
	var sign string
	if n < 0 {
		sign, n = "-", -n
	}
	if n < unit {
		return fmt.Sprintf("%s%d B", sign, n)
	}
	v, i := float64(n)/unit, 0
	for v >= unit && i < len("kMGTPE")-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%s%.1f %cB", sign, v, "kMGTPE"[i])
}
