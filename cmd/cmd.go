package cmd

import (
	"os"

	"github.com/golang/glog"

	"github.com/rorebuild/grf/cmd/root"

	_ "github.com/rorebuild/grf/cmd/crypt"
	_ "github.com/rorebuild/grf/cmd/exportspr"
	_ "github.com/rorebuild/grf/cmd/filter"
	_ "github.com/rorebuild/grf/cmd/get"
	_ "github.com/rorebuild/grf/cmd/grfcrypt"
	_ "github.com/rorebuild/grf/cmd/init"
	_ "github.com/rorebuild/grf/cmd/inspect"
	_ "github.com/rorebuild/grf/cmd/lint"
	_ "github.com/rorebuild/grf/cmd/list"
	_ "github.com/rorebuild/grf/cmd/ls"
	_ "github.com/rorebuild/grf/cmd/pack"
	_ "github.com/rorebuild/grf/cmd/rm"
	_ "github.com/rorebuild/grf/cmd/tarzip"
	_ "github.com/rorebuild/grf/cmd/unpack"
	_ "github.com/rorebuild/grf/cmd/verify"
	_ "github.com/rorebuild/grf/cmd/version"
)

func Execute() {
	err := root.Command.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
