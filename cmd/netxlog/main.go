package main

import (
	"fmt"
	"os"

	"github.com/netxfw/netxlog/cmd/netxlog/commands"
	"github.com/netxfw/netxlog/internal/utils/logger"
)

func main() {
	err := commands.RootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
