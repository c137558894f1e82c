package lint

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rorebuild/grf/act"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/grfutil"
	"github.com/rorebuild/grf/spr"
)

var Flags struct {
	Files  []string
	Strict bool
	Quiet  bool
}

var Command = &cobra.Command{
	GroupID: root.GroupAsset.ID,
	Use:     "lint [--grf grf_path] file...",
	Short:   "Decodes assets and reports anomalies",
	Long: `Decodes assets and reports anomalies

Each warning is printed as file: kind: message. Animations are also checked
against the sprite with the same name, if it exists.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Flags.Files = args
		return main()
	},
}

func init() {
	root.FlagGRF(Command)
	Command.Flags().BoolVarP(&Flags.Strict, "strict", "s", false, "fail if there are any warnings")
	Command.Flags().BoolVarP(&Flags.Quiet, "quiet", "q", false, "only print files with warnings or errors")
	root.Command.AddCommand(Command)
}

func main() error {
	r, err := root.OpenAssets()
	if err != nil {
		return err
	}
	defer r.Close()

	var failed, warned int
	for _, name := range Flags.Files {
		c := diag.New()
		if err := lint(r, name, c); err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", name, err)
			failed++
			continue
		}
		for _, w := range c.Warnings() {
			fmt.Printf("%s: %s\n", name, w)
		}
		if c.Len() != 0 {
			warned++
		} else if !Flags.Quiet {
			fmt.Printf("%s: ok\n", name)
		}
	}
	if failed != 0 {
		return errors.Errorf("%d/%d files could not be decoded", failed, len(Flags.Files))
	}
	if Flags.Strict && warned != 0 {
		return errors.Errorf("%d/%d files have warnings", warned, len(Flags.Files))
	}
	return nil
}

func lint(r *root.AssetReader, name string, c *diag.Collector) error {
	buf, err := r.ReadFile(name)
	if err != nil {
		return err
	}
	v, err := grfutil.DecodeAsset(name, buf, c)
	if err != nil {
		return err
	}
	if a, ok := v.(*act.Animation); ok {
		sprName := strings.TrimSuffix(name, path.Ext(name)) + ".spr"
		if r.Exists(sprName) {
			buf, err := r.ReadFile(sprName)
			if err != nil {
				return err
			}
			s, err := spr.Decode(bytes.NewReader(buf))
			if err != nil {
				return errors.Wrapf(err, "decode %q", sprName)
			}
			a.CheckSprite(s, c)
		}
	}
	return nil
}
