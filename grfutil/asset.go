package grfutil

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/rorebuild/grf/act"
	"github.com/rorebuild/grf/diag"
	"github.com/rorebuild/grf/gnd"
	"github.com/rorebuild/grf/rsm"
	"github.com/rorebuild/grf/rsw"
	"github.com/rorebuild/grf/spr"
)

// AssetExts lists the file extensions DecodeAsset understands.
var AssetExts = []string{".act", ".gnd", ".rsm", ".rsm2", ".rsw", ".spr"}

// DecodeAsset decodes buf according to the extension of name, reporting
// anomalies to c.
func DecodeAsset(name string, buf []byte, c *diag.Collector) (any, error) {
	r := bytes.NewReader(buf)
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".act":
		return act.DecodeWithDiagnostics(r, c)
	case ".gnd":
		return gnd.DecodeWithDiagnostics(r, c)
	case ".rsm", ".rsm2":
		return rsm.DecodeWithDiagnostics(r, c)
	case ".rsw":
		return rsw.DecodeWithDiagnostics(r, c)
	case ".spr":
		return spr.DecodeWithDiagnostics(r, c)
	default:
		return nil, fmt.Errorf("unsupported asset type %q", ext)
	}
}

// DumpFormats lists the formats supported by Dump.
var DumpFormats = []string{"yaml", "spew"}

// Dump writes v to w in the named format.
func Dump(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(v); err != nil {
			return err
		}
		return e.Close()
	case "spew":
		cfg := spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		cfg.Fdump(w, v)
		return nil
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}
