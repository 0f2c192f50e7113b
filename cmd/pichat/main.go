package main

import (
	"os"

	"pichat/cmd/pichat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
