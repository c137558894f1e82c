package init

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	Path    string
	Force   bool
	Encrypt string
}

var Command = &cobra.Command{
	GroupID: root.GroupRepack.ID,
	Use:     "init [out_path]",
	Short:   "Initializes encryption and ignore rules so a directory can be packed",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			Flags.Path = "."
		} else {
			Flags.Path = args[0]
		}
		main()
	},
}

func init() {
	Command.Flags().BoolVarP(&Flags.Force, "force", "f", false, "overwrite files if they exist")
	Command.Flags().StringVar(&Flags.Encrypt, "encrypt", grf.EncryptNone.String(), "default encryption mode (none, mixed, header)")
	root.Command.AddCommand(Command)
}

func main() {
	mode, err := grf.ParseEncryption(Flags.Encrypt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := os.Mkdir(Flags.Path, 0777); err != nil && !errors.Is(err, fs.ErrExist) {
		fmt.Fprintf(os.Stderr, "error: create output directory: %v\n", err)
		os.Exit(1)
	}

	writeFile := writeFileExcl
	if Flags.Force {
		writeFile = os.WriteFile
	}

	var crypt grfutil.Crypt
	if err := crypt.Add("/", mode); err != nil {
		panic(err)
	}

	var ignore grfutil.Ignore
	ignore.AddDefault()

	var fail bool
	if err := writeFile(filepath.Join(Flags.Path, grfutil.CryptFilename), []byte(crypt.String()), 0666); err != nil {
		fmt.Fprintf(os.Stderr, "error: save %s: %v\n", grfutil.CryptFilename, err)
		fail = true
	}
	if err := writeFile(filepath.Join(Flags.Path, grfutil.IgnoreFilename), []byte(ignore.String()), 0666); err != nil {
		fmt.Fprintf(os.Stderr, "error: save %s: %v\n", grfutil.IgnoreFilename, err)
		fail = true
	}
	if fail {
		os.Exit(1)
	}
}

func writeFileExcl(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if err != nil {
		os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
