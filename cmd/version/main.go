package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
)

var Command = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	root.Command.AddCommand(Command)
}

func main() {
	var vcs struct {
		revision string
		time     time.Time
		modified bool
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				vcs.revision = s.Value
			case "vcs.time":
				v, err := time.ParseInLocation(time.RFC3339Nano, s.Value, time.UTC)
				if err != nil {
					panic(fmt.Errorf("parse %s %q: %w", s.Key, s.Value, err))
				}
				vcs.time = v
			case "vcs.modified":
				v, err := strconv.ParseBool(s.Value)
				if err != nil {
					panic(fmt.Errorf("parse %s %q: %w", s.Key, s.Value, err))
				}
				vcs.modified = v
			}
		}
	}

	version := "grftool "
	if len(vcs.revision) >= 7 {
		version += vcs.revision[:7]
	} else {
		version += "unknown"
	}
	if !vcs.time.IsZero() {
		version += " " + vcs.time.Format("2006-01-02")
	}
	if vcs.modified {
		version += " (modified)"
	}
	fmt.Println(version)
	fmt.Printf("archive version %s, %s\n", grf.Version, runtime.Version())
}
