package root

import (
	"flag"
	"os"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rorebuild/grf"
	"github.com/rorebuild/grf/grfutil"
)

var Flags struct {
	GRF     string
	Threads int
}

var Command = &cobra.Command{
	Use:   "grftool",
	Short: "Manipulates GRF archives and the assets inside them.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		flag.CommandLine.Parse(nil) // the values were set through pflag; glog only checks flag.Parsed
		if Flags.Threads < 0 {
			Flags.Threads = 0
		}
		if Flags.Threads > runtime.NumCPU() {
			runtime.GOMAXPROCS(Flags.Threads)
		}
	},
	SilenceUsage: true,
}

var (
	GroupRead = &cobra.Group{
		ID:    "read",
		Title: "Reading:",
	}
	GroupWrite = &cobra.Group{
		ID:    "write",
		Title: "Editing:",
	}
	GroupRepack = &cobra.Group{
		ID:    "repack",
		Title: "Unpacking and repacking:",
	}
	GroupAsset = &cobra.Group{
		ID:    "asset",
		Title: "Assets:",
	}
)

func init() {
	Command.AddGroup(GroupRead, GroupWrite, GroupRepack, GroupAsset)
	Command.PersistentFlags().IntVarP(&Flags.Threads, "threads", "j", runtime.NumCPU(), "number of files to read concurrently (0 or 1 to disable, default is cpu count)")

	// glog registers single-letter flags, which would clash with the -v
	// shorthand of the subcommands
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		pf := pflag.PFlagFromGoFlag(f)
		pf.Shorthand = ""
		Command.PersistentFlags().AddFlag(pf)
	})
}

// ArgGRF updates cmd to use the archive path as the first mandatory argument,
// storing it in out and registering completions.
//
// If i is positive, arguments after it (one or, if multi, many) are completed
// with paths from the archive (these are not validated).
func ArgGRF(out *string, cmd *cobra.Command, i int, multi, dirs, files bool) {
	if i == 0 {
		panic("file arg index must not be zero")
	}

	// check the help text if it's set
	if a, b, _ := strings.Cut(cmd.Use, " "); a != "" {
		if a, _, _ := strings.Cut(b, " "); a != "grf_path" {
			panic("second argument help must be grf_path")
		}
	}

	args := func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || args[0] == "" {
			return errors.New("grf path is required")
		}
		*out = args[0]
		return nil
	}
	if next := cmd.Args; next != nil {
		cmd.Args = cobra.MatchAll(args, next)
	} else {
		cmd.Args = args
	}

	validArgsFunction := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return []string{"grf", "gpf"}, cobra.ShellCompDirectiveFilterFileExt
		}
		if i > 0 && len(args) >= i && (multi || len(args) == i) {
			return ArgGRFFileCompletions(args, toComplete, dirs, files)
		}
		return nil, cobra.ShellCompDirectiveDefault
	}
	if next := cmd.ValidArgsFunction; next != nil {
		cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 || (i > 0 && len(args) >= i && (multi || len(args) == i)) {
				return validArgsFunction(cmd, args, toComplete)
			}
			return next(cmd, args, toComplete)
		}
	} else {
		cmd.ValidArgsFunction = validArgsFunction
	}
}

// ArgGRFFileCompletions completes toComplete with paths from the archive named
// by the first argument.
func ArgGRFFileCompletions(args []string, toComplete string, dirs, files bool) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveError
	}
	a, err := grf.Open(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()

	toComplete = grf.Clean(toComplete)

	var (
		cs []string
		ds = map[string]struct{}{}
	)
	for _, e := range a.Entries() {
		if files && !e.IsDir() && strings.HasPrefix(e.Path, toComplete) {
			cs = append(cs, e.Path)
		}
		if dirs {
			if e.IsDir() {
				ds[e.Path] = struct{}{}
			}
			for d := path.Dir(e.Path); d != "."; d = path.Dir(d) {
				if _, ok := ds[d]; ok {
					break
				}
				ds[d] = struct{}{}
			}
		}
	}
	for d := range ds {
		if strings.HasPrefix(d, toComplete) {
			cs = append(cs, d+"/")
		}
	}

	slices.Sort(cs)
	cs = slices.Compact(cs)
	return cs, cobra.ShellCompDirectiveNoFileComp
}

// FlagIncludeExclude adds --exclude and --include flags to cmd, storing them
// in out.
func FlagIncludeExclude(out *grfutil.IncludeExclude, cmd *cobra.Command, short bool) {
	out.RegisterFlags(cmd.Flags(), short)
}

// FlagGRF adds a --grf flag for commands which read assets from either an
// archive or the filesystem.
func FlagGRF(cmd *cobra.Command) {
	cmd.Flags().StringVar(&Flags.GRF, "grf", "", "read assets from this archive instead of the filesystem")
	cmd.RegisterFlagCompletionFunc("grf", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"grf", "gpf"}, cobra.ShellCompDirectiveFilterFileExt
	})
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Flags.GRF == "" {
			return nil, cobra.ShellCompDirectiveDefault
		}
		return ArgGRFFileCompletions([]string{Flags.GRF}, toComplete, false, true)
	}
}

// OpenGRF opens the archive at name.
func OpenGRF(name string) (*grf.Archive, error) {
	a, err := grf.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open grf")
	}
	return a, nil
}

// AssetReader reads assets from the archive set by --grf, or the filesystem if
// it was not set.
type AssetReader struct {
	a *grf.Archive
}

// OpenAssets opens the asset source selected by the flags.
func OpenAssets() (*AssetReader, error) {
	if Flags.GRF == "" {
		return &AssetReader{}, nil
	}
	a, err := OpenGRF(Flags.GRF)
	if err != nil {
		return nil, err
	}
	return &AssetReader{a}, nil
}

// ReadFile reads the asset called name.
func (r *AssetReader) ReadFile(name string) ([]byte, error) {
	var (
		buf []byte
		err error
	)
	if r.a != nil {
		buf, err = r.a.ReadPath(name)
	} else {
		buf, err = os.ReadFile(name)
	}
	return buf, errors.Wrapf(err, "read %q", name)
}

// Exists checks whether an asset called name exists.
func (r *AssetReader) Exists(name string) bool {
	if r.a != nil {
		e, ok := r.a.Lookup(name)
		return ok && !e.IsDir()
	}
	fi, err := os.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

// Close closes the archive, if any.
func (r *AssetReader) Close() error {
	if r.a != nil {
		return r.a.Close()
	}
	return nil
}
