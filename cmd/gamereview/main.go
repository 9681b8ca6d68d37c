// Package main provides the gamereview CLI tool for analyzing and
// annotating chess games with Stockfish.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
