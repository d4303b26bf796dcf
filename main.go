package main

import (
	"os"

	"github.com/perimeterlabs/graphgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
