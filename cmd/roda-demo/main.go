// Command roda-demo runs one of the example pipelines
// (examples/tickcandle, examples/orderflow) for a configurable
// duration. HTTP transport is out of this project's scope, so the demo
// drives a pipeline directly instead of fronting it with a gateway.
package main

import (
	"fmt"
	"os"

	"github.com/tislib/roda-state/cmd/roda-demo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
