package main

import (
	"os"

	"github.com/amitbh/stockscope/cmd/stockscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
