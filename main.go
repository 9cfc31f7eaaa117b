// Command intake validates merchant transaction batches from the command
// line or over HTTP. See cmd/root.go for the available subcommands.
package main

import (
	"github.com/ginjaninja78/merchant-fee-intake/cmd"
)

func main() {
	cmd.Execute()
}
