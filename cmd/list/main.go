package list

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF                string
	HumanReadable      bool
	HumanReadableFlags bool
	Long               bool
	Test               bool
	Dirs               bool
	IncludeExclude     grfutil.IncludeExclude
}

var Command = &cobra.Command{
	GroupID: root.GroupRead.ID,
	Use:     "list grf_path",
	Short:   "Lists the contents of a GRF",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	Command.Flags().Bool("help", false, "help for "+Command.Name()) // prevent the default short help flag from being set
	Command.Flags().BoolVarP(&Flags.HumanReadable, "human-readable", "h", false, "show values in human-readable form")
	Command.Flags().BoolVarP(&Flags.HumanReadableFlags, "human-readable-flags", "f", false, "if displaying flags, also show them in human-readable form at the very end of the line (delimited by a #)")
	Command.Flags().BoolVarP(&Flags.Long, "long", "l", false, "show detailed file metadata (adds the following columns to the beginning: flags[binary] encryption compressed_size[bytes] aligned_size[bytes] uncompressed_size[bytes] compressed_percent)")
	Command.Flags().BoolVarP(&Flags.Test, "test", "t", false, "also attempt to read and decompress contents (adds a column with OK/ERR to the end)")
	Command.Flags().BoolVarP(&Flags.Dirs, "dirs", "d", false, "also list explicit directory entries")
	root.FlagIncludeExclude(&Flags.IncludeExclude, Command, true)
	root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
	root.Command.AddCommand(Command)
}

func main() {
	a, err := root.OpenGRF(Flags.GRF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var es []grf.Entry
	for _, e := range a.Entries() {
		if e.IsDir() && !Flags.Dirs {
			continue
		}
		if skip, err := Flags.IncludeExclude.Skip(e.Path); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		} else if skip {
			continue
		}
		es = append(es, e)
	}

	var pathLen int
	for _, e := range es {
		pathLen = max(pathLen, min(len(e.Path), 64))
	}

	var testErrCount, testCount int
	show := func(e grf.Entry, testErr error) {
		if Flags.Long {
			mode, _ := e.Flags.Encryption()
			var ratio float64
			if e.Size != 0 {
				ratio = float64(e.CompressedSize) / float64(e.Size) * 100
			}
			if Flags.HumanReadable {
				fmt.Printf("%08b %-6s %9s %9s %9s %6.2f %%  ", e.Flags, mode, formatBytesSIAligned(int64(e.CompressedSize)), formatBytesSIAligned(int64(e.AlignedSize)), formatBytesSIAligned(int64(e.Size)), ratio)
			} else {
				fmt.Printf("%08b %-6s %9d %9d %9d %6.2f %%  ", e.Flags, mode, e.CompressedSize, e.AlignedSize, e.Size, ratio)
			}
		}
		if Flags.Test || (Flags.Long && Flags.HumanReadableFlags) {
			fmt.Printf("%*s", -pathLen, e.Path)
		} else {
			fmt.Printf("%s", e.Path)
		}
		if Flags.Test {
			if testErr != nil {
				fmt.Printf(" ERR")
			} else {
				fmt.Printf("  OK")
			}
		}
		if Flags.Long && Flags.HumanReadableFlags {
			fmt.Printf(" # %s", strings.Join(grf.DescribeFlags(e.Flags), "|"))
		}
		fmt.Printf("\n")
		if testErr != nil {
			fmt.Fprintf(os.Stderr, "warning: entry %q: test: %v\n", e.Path, testErr)
		}
	}

	if !Flags.Test {
		for _, e := range es {
			show(e, nil)
		}
		return
	}

	var files []grf.Entry
	for _, e := range es {
		if e.IsDir() {
			show(e, nil)
		} else {
			files = append(files, e)
		}
	}
	grfutil.ReadEntries(a, files, root.Flags.Threads, func(e grf.Entry, _ []byte, err error) error {
		testCount++
		if err != nil {
			testErrCount++
		}
		show(e, err)
		return nil
	})
	fmt.Fprintf(os.Stderr, "%d/%d files valid\n", testCount-testErrCount, testCount)
	if testErrCount != 0 {
		os.Exit(1)
	}
}

func formatBytesSIAligned(b int64) string {
	s := grfutil.FormatSize(b)
	s, isB := strings.CutSuffix(s, " B")
	if isB {
		s += "  B"
	}
	return s
}
