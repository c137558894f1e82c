package filter

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF            string
	IncludeExclude grfutil.IncludeExclude
	Verbose        bool
	DryRun         bool
}

var Command = &cobra.Command{
	GroupID: root.GroupWrite.ID,
	Use:     "filter grf_path",
	Short:   "Filters files out of a GRF",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
	root.FlagIncludeExclude(&Flags.IncludeExclude, Command, true)
	Command.Flags().BoolVarP(&Flags.DryRun, "dry-run", "n", false, "do not write changes")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "print information about each filtered file")
	root.Command.AddCommand(Command)
}

func main() {
	if err := grfutil.UpdateArchive(Flags.GRF, Flags.DryRun, func(a *grf.Archive, w *grf.Writer) error {
		for _, e := range a.Entries() {
			skip, err := Flags.IncludeExclude.Skip(e.Path)
			if err != nil {
				return err
			}
			if skip {
				w.Remove(e.Path)
				if Flags.Verbose {
					fmt.Printf("filtered %s\n", e.Path)
				}
			}
		}
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
