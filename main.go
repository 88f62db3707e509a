package main

import (
	"fmt"
	"os"

	"flagops/cmd/flagops"
)

func main() {
	// Execute root
	if err := flagops.Command.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
