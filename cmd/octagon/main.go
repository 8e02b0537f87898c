// Package main is the entry point for the octagon command line, which
// predicts and explains bouts from the configured dataset and models.
package main

import "github.com/okian/octagon/internal/cli"

func main() {
	cli.Main()
}
