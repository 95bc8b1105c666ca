// Package main provides the wbemctl command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/wbemctl/internal/cli"

	// Register catalog providers
	_ "github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
	_ "github.com/leapstack-labs/wbemctl/pkg/providers/ole"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
