package verify

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF     string
	Verbose bool
}

var Command = &cobra.Command{
	GroupID: root.GroupRead.ID,
	Use:     "verify grf_path",
	Short:   "Verifies the contents of a GRF",
	Long: `Verifies the contents of a GRF

Every file is decrypted and decompressed, and must inflate to exactly its
recorded size.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display files as they are verified")
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
		if !e.IsDir() {
			es = append(es, e)
		}
	}

	var failure int
	grfutil.ReadEntries(a, es, root.Flags.Threads, func(e grf.Entry, _ []byte, err error) error {
		if err != nil {
			if Flags.Verbose {
				fmt.Printf("%s: ERROR\n", e.Path)
			}
			fmt.Fprintf(os.Stderr, "%s: ERROR - %v\n", e.Path, err)
			failure++
		} else if Flags.Verbose {
			fmt.Printf("%s: OK\n", e.Path)
		}
		return nil
	})
	if failure != 0 {
		fmt.Fprintf(os.Stderr, "%d/%d files failed\n", failure, len(es))
		os.Exit(1)
	}
}
