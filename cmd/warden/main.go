package main

import (
	"os"

	"github.com/dnsl48/warden/cmd/warden/cmd"
	_ "github.com/dnsl48/warden/drivers/postgres"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
