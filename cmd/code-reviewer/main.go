package main

import (
	"os"

	"github.com/dshills/codereviewer/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
