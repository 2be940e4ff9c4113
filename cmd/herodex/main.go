// herodex is a terminal client for the character catalog
package main

import (
	"os"

	"github.com/iiroan/herodex/cmd/herodex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
