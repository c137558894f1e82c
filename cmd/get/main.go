package get

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf/cmd/root"
)

var Flags struct {
	GRF   string
	Files []string
}

var Command = &cobra.Command{
	GroupID: root.GroupRead.ID,
	Use:     "get grf_path file...",
	Aliases: []string{"cat"},
	Short:   "Reads files from a GRF to stdout",
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Files = args[1:]
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, 1, true, false, true)
	root.Command.AddCommand(Command)
}

func main() {
	a, err := root.OpenGRF(Flags.GRF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var failed int
	for _, name := range Flags.Files {
		if err := func() error {
			b, err := a.ReadPath(name)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(b)
			return err
		}(); err != nil {
			fmt.Fprintf(os.Stderr, "error: read file %q: %v\n", name, err)
			failed++
		}
	}
	if failed != 0 {
		os.Exit(1)
	}
}
