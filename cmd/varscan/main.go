// Command varscan extracts variable declarations, imports and references
// from JavaScript, TypeScript, Python, Vue, JSON and YAML files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
