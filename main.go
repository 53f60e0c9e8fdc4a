// Adleman - simulated DNA computing for Hamiltonian path problems.
//
// Adleman encodes a directed graph as random DNA strands, lets edge
// fragments ligate into products, amplifies the products that run from
// the start node to the end node, and keeps the ones that visit every
// node exactly once.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/adleman-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
