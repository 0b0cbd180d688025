// Command investflow is the operator CLI. It runs the same services as
// investflow-server directly against the configured store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultLoader).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
