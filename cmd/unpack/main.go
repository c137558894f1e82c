package unpack

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
	GRF            string
	Path           string
	CryptExplicit  bool
	IgnoreEmpty    bool
	Verbose        bool
	IncludeExclude grfutil.IncludeExclude
}

var Command = &cobra.Command{
	GroupID: root.GroupRepack.ID,
	Use:     "unpack grf_path out_path",
	Short:   "Unpacks a GRF for modification and repacking",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Path = args[1]
		main()
	},
}

func init() {
	root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
	Command.Flags().BoolVarP(&Flags.CryptExplicit, "explicit-crypt", "x", false, "do not compute inherited encryption rules; generate one line for each file")
	Command.Flags().BoolVar(&Flags.IgnoreEmpty, "empty-ignore", false, "do not add default ignore entries")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display progress information")
	root.FlagIncludeExclude(&Flags.IncludeExclude, Command, true)
	root.Command.AddCommand(Command)
}

func main() {
	if Flags.Verbose {
		fmt.Printf("unpacking grf to %q\n", Flags.Path)
	}

	a, err := root.OpenGRF(Flags.GRF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if Flags.Verbose {
		if Flags.CryptExplicit {
			fmt.Printf("... generating %s (without inheritance)\n", grfutil.CryptFilename)
		} else {
			fmt.Printf("... generating %s\n", grfutil.CryptFilename)
		}
	}
	var crypt grfutil.Crypt
	if Flags.CryptExplicit {
		err = crypt.GenerateExplicit(a.Entries())
	} else {
		err = crypt.Generate(a.Entries())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: generate %s: %v\n", grfutil.CryptFilename, err)
		os.Exit(1)
	}
	if err := crypt.Test(a.Entries()); err != nil {
		panic(fmt.Errorf("BUG: test generated %s: %w", grfutil.CryptFilename, err))
	}

	if Flags.Verbose {
		fmt.Printf("... generating %s\n", grfutil.IgnoreFilename)
	}
	var ignore grfutil.Ignore
	if !Flags.IgnoreEmpty {
		ignore.AddDefault()
	}
	if err := ignore.AddAutoExclusions(a.Entries()); err != nil {
		fmt.Fprintf(os.Stderr, "error: generate %s: %v\n", grfutil.IgnoreFilename, err)
		os.Exit(1)
	}

	if Flags.Verbose {
		fmt.Printf("... creating output directory\n")
	}
	if err := os.Mkdir(Flags.Path, 0777); err != nil && !errors.Is(err, fs.ErrExist) {
		fmt.Fprintf(os.Stderr, "error: create output directory: %v\n", err)
		os.Exit(1)
	}
	if dis, err := os.ReadDir(Flags.Path); err != nil {
		fmt.Fprintf(os.Stderr, "error: list output directory: %v\n", err)
		os.Exit(1)
	} else {
		for _, di := range dis {
			if !ignore.Match(di.Name()) {
				fmt.Fprintf(os.Stderr, "error: output directory must not exist or be empty (other than ignored files), found %q\n", di.Name())
				os.Exit(1)
			}
		}
	}

	for _, x := range []struct {
		name string
		data string
	}{
		{grfutil.CryptFilename, crypt.String()},
		{grfutil.IgnoreFilename, ignore.String()},
	} {
		if Flags.Verbose {
			fmt.Printf("... saving %s\n", x.name)
		}
		if err := os.WriteFile(filepath.Join(Flags.Path, x.name), []byte(x.data), 0666); err != nil {
			fmt.Fprintf(os.Stderr, "error: write %s: %v\n", x.name, err)
			os.Exit(1)
		}
	}

	var (
		es            []grf.Entry
		excludedCount int
	)
	for _, e := range a.Entries() {
		if skip, err := Flags.IncludeExclude.Skip(e.Path); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		} else if skip {
			excludedCount++
			if Flags.Verbose {
				fmt.Printf("%s (excluded)\n", e.Path)
			}
			continue
		}
		if e.IsDir() {
			if err := os.MkdirAll(filepath.Join(Flags.Path, filepath.FromSlash(e.Path)), 0777); err != nil {
				fmt.Fprintf(os.Stderr, "error: create directory %q: %v\n", e.Path, err)
				os.Exit(1)
			}
			continue
		}
		es = append(es, e)
	}

	if Flags.Verbose {
		fmt.Println()
	}
	var i int
	if err := grfutil.ReadEntries(a, es, root.Flags.Threads, func(e grf.Entry, data []byte, err error) error {
		i++
		if err != nil {
			return fmt.Errorf("read grf file %q: %w", e.Path, err)
		}
		if Flags.Verbose {
			fmt.Printf("[%4d/%4d] %s (%s)\n", i, len(es), e.Path, grfutil.FormatSize(int64(e.Size)))
		}
		return extract(e, data)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if Flags.Verbose {
		if excludedCount != 0 {
			fmt.Printf("\nsuccess (%d entries excluded by command-line filter)\n", excludedCount)
		} else {
			fmt.Printf("\nsuccess\n")
		}
	}
}

func extract(e grf.Entry, data []byte) error {
	outPath := filepath.Join(Flags.Path, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(outPath), 0777); err != nil {
		return fmt.Errorf("create %q: %w", outPath, err)
	}

	tf, err := os.CreateTemp(Flags.Path, ".grf*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tf.Name())
	defer tf.Close()

	if _, err := tf.Write(data); err != nil {
		return fmt.Errorf("extract grf file %q: %w", e.Path, err)
	}
	if err := tf.Close(); err != nil {
		return fmt.Errorf("extract grf file %q: %w", e.Path, err)
	}
	if err := os.Rename(tf.Name(), outPath); err != nil {
		return fmt.Errorf("extract grf file %q: rename temp file: %w", e.Path, err)
	}
	return nil
}
