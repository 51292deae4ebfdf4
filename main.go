package main

import (
	"github.com/xkilldash9x/jobfill/cmd"
)

// main is the entry point for the jobfill application. Command-line
// parsing, configuration and execution all live in the cmd package.
func main() {
	cmd.Execute()
}
