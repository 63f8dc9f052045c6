package main

import (
	"fmt"
	"os"

	"github.com/tidepool-amm/tidepool/cmd/tidepool-sim/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
