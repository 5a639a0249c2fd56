package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/scheme"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the size of the bundled catalog",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)

		bundled, err := scheme.Embedded(zap.NewNop()).Fetch(context.Background())
		if err != nil {
			fmt.Printf("bundled catalog: unreadable (%s)\n", err)
			return
		}
		fmt.Printf("bundled catalog: %d schemes\n", bundled.Len())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
