package rm

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF     string
	Files   []string
	Force   bool
	Verbose bool
	DryRun  bool
}

var Command = &cobra.Command{
	GroupID: root.GroupWrite.ID,
	Use:     "rm grf_path file...",
	Aliases: []string{"remove", "delete", "del"},
	Short:   "Delete files or directories from a GRF",
	Long: `Delete files or directories from a GRF

The archive is rewritten without the deleted data.
`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Files = args[1:]
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, 1, true, true, true)
	Command.Flags().BoolVarP(&Flags.Force, "force", "f", false, "ignore non-existent files")
	Command.Flags().BoolVarP(&Flags.DryRun, "dry-run", "n", false, "do not write changes")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "print information about each processed file")
	root.Command.AddCommand(Command)
}

func main() {
	var failed int
	if err := grfutil.UpdateArchive(Flags.GRF, Flags.DryRun, func(a *grf.Archive, w *grf.Writer) error {
		for _, name := range Flags.Files {
			if err := func() error {
				p := grf.Clean(name)
				var matched bool
				for _, e := range a.Entries() {
					if p == "" || strings.HasPrefix(e.Path+"/", p+"/") {
						if w.Remove(e.Path) && Flags.Verbose {
							fmt.Printf("delete %s\n", e.Path)
						}
						matched = true
					}
				}
				if !matched && !Flags.Force {
					return fs.ErrNotExist
				}
				return nil
			}(); err != nil {
				fmt.Fprintf(os.Stderr, "error: delete %q: %v\n", name, err)
				failed++
			}
		}
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if failed != 0 {
		os.Exit(1)
	}
}
