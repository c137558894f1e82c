package crypt

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
	Mode    string
	Files   []string
	Verbose bool
	DryRun  bool
}

var Command = &cobra.Command{
	GroupID: root.GroupWrite.ID,
	Use:     "crypt grf_path { none | mixed | header | @reference_file } file...",
	Aliases: []string{"chflg", "encrypt"},
	Short:   "Sets the encryption of GRF entries",
	Long: `Sets the encryption of GRF entries

The mode is either given directly, or as a path to another file in the GRF to copy the mode from.

The provided file can also be a directory to change all files under it (use / to change everything).
`,
	Args: cobra.MinimumNArgs(3),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			if toComplete, ok := strings.CutPrefix(toComplete, "@"); ok {
				cs, rc := root.ArgGRFFileCompletions(args, toComplete, false, true)
				for i := range cs {
					cs[i] = "@" + cs[i]
				}
				return cs, rc
			}
			return []string{"none", "mixed", "header"}, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveDefault
	},
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Mode = args[1]
		Flags.Files = args[2:]
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, 2, true, true, true)
	Command.Flags().BoolVarP(&Flags.DryRun, "dry-run", "n", false, "do not write changes")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "print information about each processed file")
	root.Command.AddCommand(Command)
}

func main() {
	var failed int
	if err := grfutil.UpdateArchive(Flags.GRF, Flags.DryRun, func(a *grf.Archive, w *grf.Writer) error {
		var (
			mode grf.Encryption
			err  error
		)
		if p, ok := strings.CutPrefix(Flags.Mode, "@"); ok {
			e, ok := a.Lookup(p)
			if !ok || e.IsDir() {
				fmt.Fprintf(os.Stderr, "error: reference file %q does not exist in grf\n", p)
				os.Exit(1)
			}
			if mode, err = e.Flags.Encryption(); err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to get encryption of reference file %q: %v\n", p, err)
				os.Exit(1)
			}
		} else if mode, err = grf.ParseEncryption(Flags.Mode); err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid mode: %v\n", err)
			os.Exit(1)
		}

		for _, name := range Flags.Files {
			if err := func() error {
				p := grf.Clean(name)
				var matched bool
				for _, e := range a.Entries() {
					if e.IsDir() || !(p == "" || strings.HasPrefix(e.Path+"/", p+"/")) {
						continue
					}
					matched = true

					orig, _ := e.Flags.Encryption()
					if orig == mode {
						if Flags.Verbose {
							fmt.Printf("%s: retained %s\n", e.Path, mode)
						}
						continue
					}
					buf, err := a.ReadEntry(e)
					if err != nil {
						return fmt.Errorf("read %q: %w", e.Path, err)
					}
					if err := w.AddFile(e.Path, buf, mode); err != nil {
						return err
					}
					if Flags.Verbose {
						fmt.Printf("%s: set %s (was %s)\n", e.Path, mode, orig)
					}
				}
				if !matched {
					return fs.ErrNotExist
				}
				return nil
			}(); err != nil {
				fmt.Fprintf(os.Stderr, "error: set encryption for file %q: %v\n", name, err)
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
