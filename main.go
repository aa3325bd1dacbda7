// The main package for the roster-crawler executable.
package main

import (
	"github.com/JakeFAU/roster-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
