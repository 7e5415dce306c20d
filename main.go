// ABOUTME: Entry point for the chunkstream player
// ABOUTME: Hands off to the cobra command tree
package main

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/chunkstream/internal/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
