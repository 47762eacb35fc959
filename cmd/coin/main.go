package main

import (
	"os"

	"mastercoin/cmd/coin/cmd"
)

func main() {
	if err := cmd.NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
