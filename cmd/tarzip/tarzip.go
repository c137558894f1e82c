package tarzip

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/cmd/root"
	"github.com/rorebuild/grf/grfutil"
)

var TarCommand = command("tar")
var ZipCommand = command("zip")

func command(format string) *cobra.Command {
	var main func()
	var Flags struct {
		GRF            string
		IncludeExclude grfutil.IncludeExclude
		Output         string
		Verbose        bool
	}
	var Command = &cobra.Command{
		GroupID: root.GroupRead.ID,
		Use:     format + " grf_path",
		Short:   "Streams the contents of a GRF as a " + format + " archive",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			main()
		},
	}
	main = func() {
		a, err := root.OpenGRF(Flags.GRF)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		var w *os.File
		switch Flags.Output {
		case "":
			fmt.Fprintf(os.Stderr, "error: no output file specified\n")
			os.Exit(1)
		case "-":
			w = os.Stdout
		default:
			w, err = os.OpenFile(Flags.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: create output file: %v\n", err)
				os.Exit(1)
			}
		}
		defer w.Close()

		var (
			archive func(name string, size int64, r io.Reader) error
			finish  func() error
		)
		switch format {
		case "tar":
			tw := tar.NewWriter(w)
			ds := map[string]struct{}{}
			archive = func(name string, size int64, r io.Reader) error {
				var mkdirs []string
			d:
				for d := path.Dir(name); d != "" && d != "."; d = path.Dir(d) {
					if _, ok := ds[d]; ok {
						continue d
					}
					mkdirs = append(mkdirs, d)
					ds[d] = struct{}{}
				}
				for i := len(mkdirs) - 1; i >= 0; i-- {
					if err := tw.WriteHeader(&tar.Header{
						Name: mkdirs[i] + "/",
						Mode: 0777,
					}); err != nil {
						return err
					}
				}
				err := tw.WriteHeader(&tar.Header{
					Name: name,
					Size: size,
					Mode: 0666,
				})
				if err == nil {
					_, err = io.Copy(tw, r)
				}
				return err
			}
			finish = tw.Close
		case "zip":
			zw := zip.NewWriter(w)
			archive = func(name string, size int64, r io.Reader) error {
				fw, err := zw.CreateHeader(&zip.FileHeader{
					Name:               name,
					Method:             zip.Deflate,
					UncompressedSize64: uint64(size),
				})
				if err == nil {
					_, err = io.Copy(fw, r)
				}
				return err
			}
			finish = zw.Close
		default:
			panic("wtf")
		}

		var es []grf.Entry
		for _, e := range a.Entries() {
			if e.IsDir() {
				continue
			}
			if skip, err := Flags.IncludeExclude.Skip(e.Path); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			} else if skip {
				if Flags.Verbose {
					fmt.Fprintf(os.Stderr, "%s (skipped)\n", e.Path)
				}
				continue
			}
			es = append(es, e)
		}
		if err := grfutil.ReadEntries(a, es, root.Flags.Threads, func(e grf.Entry, data []byte, err error) error {
			if err != nil {
				return fmt.Errorf("read grf file %q: %w", e.Path, err)
			}
			if Flags.Verbose {
				fmt.Fprintf(os.Stderr, "%s\n", e.Path)
			}
			if err := archive(e.Path, int64(len(data)), bytes.NewReader(data)); err != nil {
				return fmt.Errorf("process grf file %q: %w", e.Path, err)
			}
			return nil
		}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := finish(); err != nil {
			fmt.Fprintf(os.Stderr, "error: write output file %q: %v\n", Flags.Output, err)
			os.Exit(1)
		}

		if err := w.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error: write output file %q: %v\n", Flags.Output, err)
			os.Exit(1)
		}
	}
	{
		root.ArgGRF(&Flags.GRF, Command, -1, false, false, false)
		root.FlagIncludeExclude(&Flags.IncludeExclude, Command, true)
		Command.Flags().StringVarP(&Flags.Output, "output", "o", "-", "write the archive to a file")
		Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display files as they are archived")
		root.Command.AddCommand(Command)
	}
	return Command
}
