package main

import (
	"fmt"
	"os"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docman:", apperr.Message(err))
		os.Exit(1)
	}
}
