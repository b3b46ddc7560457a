// Package main provides the entry point for the ziskej CLI.
package main

import (
	"github.com/colthorp/ziskej-cli-go/internal/cli"
)

func main() {
	cli.Execute()
}
