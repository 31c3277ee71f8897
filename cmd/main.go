package main

import (
	"os"

	"github.com/mirae-labs/go-mirae/cmd/mirae"
)

func main() {
	if err := mirae.Execute(); err != nil {
		os.Exit(1)
	}
}
