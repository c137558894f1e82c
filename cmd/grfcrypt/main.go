package grfcrypt

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF      string
	Explicit bool
}

var Command = &cobra.Command{
	GroupID: root.GroupRepack.ID,
	Use:     "grfcrypt grf_path",
	Short:   "Generates a " + grfutil.CryptFilename + " file based on an existing GRF",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
	Command.Flags().BoolVarP(&Flags.Explicit, "explicit", "x", false, "do not compute inherited rules; generate one line for each file")
	root.Command.AddCommand(Command)
}

func main() {
	a, err := root.OpenGRF(Flags.GRF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var crypt grfutil.Crypt
	if Flags.Explicit {
		err = crypt.GenerateExplicit(a.Entries())
	} else {
		err = crypt.Generate(a.Entries())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: generate %s: %v\n", grfutil.CryptFilename, err)
		os.Exit(1)
	}
	if _, err := os.Stdout.WriteString(crypt.String()); err != nil {
		os.Exit(1)
	}
}
