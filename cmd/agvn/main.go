// Command agvn generates visual novel chapters and manages the story store.
package main

import (
	"fmt"
	"os"

	"github.com/PiazzaSanPietro/agvn/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agvn: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
