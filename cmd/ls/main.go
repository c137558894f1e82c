package ls

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF           string
	Dir           string
	Long          bool
	HumanReadable bool
}

var Command = &cobra.Command{
	GroupID: root.GroupRead.ID,
	Use:     "ls grf_path [dir]",
	Short:   "Lists a single directory of a GRF",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 1 {
			Flags.Dir = args[1]
		}
		main()
	},
}

func init() {
	Command.Flags().Bool("help", false, "help for "+Command.Name())
	Command.Flags().BoolVarP(&Flags.Long, "long", "l", false, "show sizes")
	Command.Flags().BoolVarP(&Flags.HumanReadable, "human-readable", "h", false, "show sizes in human-readable form")
	root.ArgGRF(&Flags.GRF, Command, 1, false, true, false)
	root.Command.AddCommand(Command)
}

func main() {
	a, err := root.OpenGRF(Flags.GRF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	es, err := a.ReadDirectory(Flags.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, e := range es {
		name := path.Base(e.Path)
		if e.IsDir() {
			name += "/"
		}
		if Flags.Long {
			switch {
			case e.IsDir():
				fmt.Printf("%9s  ", "-")
			case Flags.HumanReadable:
				fmt.Printf("%9s  ", grfutil.FormatSize(int64(e.Size)))
			default:
				fmt.Printf("%9d  ", e.Size)
			}
		}
		fmt.Println(name)
	}
}
