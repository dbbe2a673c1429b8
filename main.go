package main

import (
	"os"

	"github.com/kebairia/mongomail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
