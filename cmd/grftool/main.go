// Command grftool manipulates GRF archives and the assets inside them.
package main

import "github.com/rorebuild/grf/cmd"

func main() {
	cmd.Execute()
}
