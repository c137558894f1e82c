package exportspr

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/spr"
)

var Flags struct {
	File    string
	Path    string
	Verbose bool
}

var Command = &cobra.Command{
	GroupID: root.GroupAsset.ID,
	Use:     "export-spr [--grf grf_path] file out_path",
	Short:   "Writes the images of a sprite as BMP files",
	Long: `Writes the images of a sprite as BMP files

Indexed images are written as name_NNN.bmp with the sprite palette, and true
color images as name_tc_NNN.bmp.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Flags.File = args[0]
		Flags.Path = args[1]
		return main()
	},
}

func init() {
	root.FlagGRF(Command)
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display files as they are written")
	root.Command.AddCommand(Command)
}

func main() error {
	r, err := root.OpenAssets()
	if err != nil {
		return err
	}
	defer r.Close()

	buf, err := r.ReadFile(Flags.File)
	if err != nil {
		return err
	}
	s, err := spr.Decode(bytes.NewReader(buf))
	if err != nil {
		return errors.Wrapf(err, "decode %q", Flags.File)
	}

	if err := os.MkdirAll(Flags.Path, 0777); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	base := path.Base(filepath.ToSlash(Flags.File))
	base = strings.TrimSuffix(base, path.Ext(base))

	for i := range s.Indexed {
		img, err := s.Image(i)
		if err != nil {
			return err
		}
		if err := write(fmt.Sprintf("%s_%03d.bmp", base, i), img); err != nil {
			return err
		}
	}
	for i, m := range s.TrueColor {
		if err := write(fmt.Sprintf("%s_tc_%03d.bmp", base, i), m.Image()); err != nil {
			return err
		}
	}
	return nil
}

func write(name string, img image.Image) error {
	var b bytes.Buffer
	if err := bmp.Encode(&b, img); err != nil {
		return errors.Wrapf(err, "encode %s", name)
	}
	if err := os.WriteFile(filepath.Join(Flags.Path, name), b.Bytes(), 0666); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	if Flags.Verbose {
		fmt.Println(name)
	}
	return nil
}
