// Package main is the entry point of avsync.
package main

import (
	"github.com/avsync-cli/avsync/cmd"
	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
