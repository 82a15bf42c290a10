package main

import (
	"os"

	"github.com/gnolang/tgrep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(2)
	}
}
