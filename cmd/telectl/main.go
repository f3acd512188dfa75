package main

import (
	"os"

	"github.com/telegate/telegate/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
