// Command rxdemo runs a configurable integer stream through the rxkit
// operators and checks the reference transform scenarios.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
