package inspect

import (
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	File   string
	Format string
}

var Command = &cobra.Command{
	GroupID: root.GroupAsset.ID,
	Use:     "inspect [--grf grf_path] file",
	Short:   "Decodes an asset and dumps its contents",
	Long: `Decodes an asset and dumps its contents

The asset type is selected by the file extension (` + strings.Join(grfutil.AssetExts, ", ") + `).
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Flags.File = args[0]
		return main()
	},
}

func init() {
	root.FlagGRF(Command)
	Command.Flags().StringVarP(&Flags.Format, "format", "o", "yaml", "output format ("+strings.Join(grfutil.DumpFormats, ", ")+")")
	Command.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(grfutil.DumpFormats, cobra.ShellCompDirectiveNoFileComp))
	root.Command.AddCommand(Command)
}

func main() error {
	if !slices.Contains(grfutil.DumpFormats, Flags.Format) {
		return errors.Errorf("unknown output format %q", Flags.Format)
	}

	r, err := root.OpenAssets()
	if err != nil {
		return err
	}
	defer r.Close()

	buf, err := r.ReadFile(Flags.File)
	if err != nil {
		return err
	}
	v, err := grfutil.DecodeAsset(Flags.File, buf, nil)
	if err != nil {
		return errors.Wrapf(err, "decode %q", Flags.File)
	}
	return errors.Wrap(grfutil.Dump(os.Stdout, v, Flags.Format), "dump")
}
