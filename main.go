package main

import (
	"os"

	"github.com/hyerim-cho/techterview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
