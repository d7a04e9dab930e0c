package main

import (
	"os"

	"github.com/multipos/console/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
