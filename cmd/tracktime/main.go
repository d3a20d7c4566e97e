// Package main is the entry point for the tracktime application
package main

import (
	"github.com/ethpandaops/tracktime/cmd"
)

func main() {
	cmd.Execute()
}
