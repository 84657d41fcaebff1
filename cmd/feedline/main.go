package main

import (
	"os"

	"github.com/odysseus0/feedline/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.Execute()
	cli.PrintError(err)
	return cli.ErrorExitCode(err)
}
