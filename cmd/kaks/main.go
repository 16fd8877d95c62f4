// Command kaks calculates Ka, Ks and Ka/Ks for gene pairs.
package main

import (
	"os"

	"github.com/roach88/kaks/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
