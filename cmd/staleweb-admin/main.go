// Package main provides the entry point for the staleweb-admin CLI tool.
package main

import (
	"github.com/reposphere/staleweb/cmd/cli"
)

func main() {
	cli.Execute()
}
