package pack

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	Path    string
	Output  string
	Encrypt string
	Seed    uint32
	Verbose bool
}

var Command = &cobra.Command{
	GroupID: root.GroupRepack.ID,
	Use:     "pack in_path out_path",
	Short:   "Packs a directory into a GRF",
	Long: `Packs a directory into a GRF

Files matching the rules in ` + grfutil.IgnoreFilename + ` are skipped, and each file is encrypted
according to ` + grfutil.CryptFilename + ` unless --encrypt is set. Both files are created by
unpack and init.
`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Path = args[0]
		Flags.Output = args[1]
		main()
	},
}

func init() {
	Command.Flags().StringVar(&Flags.Encrypt, "encrypt", "", "encrypt every file with this mode (none, mixed, header) instead of following the rules")
	Command.Flags().Uint32Var(&Flags.Seed, "seed", 0, "value used to scramble the stored entry count")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display files as they are packed")
	root.Command.AddCommand(Command)
}

func main() {
	crypt, ignore, err := grfutil.LoadRules(Flags.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if Flags.Encrypt != "" {
		mode, err := grf.ParseEncryption(Flags.Encrypt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		crypt = grfutil.Crypt{}
		if err := crypt.Add("/", mode); err != nil {
			panic(err)
		}
	}

	w := grf.NewWriter()
	w.Seed = Flags.Seed
	if err := grfutil.PackDir(w, Flags.Path, crypt, ignore, func(name string, mode grf.Encryption) {
		if Flags.Verbose {
			fmt.Printf("%-6s %s\n", mode, name)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	tf, err := os.CreateTemp(filepath.Dir(Flags.Output), ".grf*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: create temp file: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(tf.Name())
	defer tf.Close()

	if _, err := w.WriteTo(tf); err != nil {
		fmt.Fprintf(os.Stderr, "error: write grf: %v\n", err)
		os.Exit(1)
	}
	if err := tf.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: write grf: %v\n", err)
		os.Exit(1)
	}
	if err := os.Rename(tf.Name(), Flags.Output); err != nil {
		fmt.Fprintf(os.Stderr, "error: write grf: rename temp file: %v\n", err)
		os.Exit(1)
	}
	if Flags.Verbose {
		fmt.Printf("\npacked %d entries\n", w.Len())
	}
}
