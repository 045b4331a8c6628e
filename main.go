package main

import (
	"fmt"
	"os"

	"nstep-dqn/commands"
)

// main entry point to training and comparison runs
func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
