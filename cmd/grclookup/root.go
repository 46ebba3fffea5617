package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/grclookup/internal/config"
	"github.com/kailas-cloud/grclookup/internal/version"
)

func newRootCmd() *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:   "grclookup",
		Short: "Resolve GRC platform field values to record ids",
		Long: `grclookup resolves human-readable field values of a GRC platform
application (ticket numbers, names, values-list entries) to internal record ids.

It runs either as an HTTP lookup service or as a one-shot command.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "configuration environment (local, dev, prod)")

	root.AddCommand(
		newServeCmd(&env),
		newLookupCmd(&env),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "grclookup version %s\n", version.Version)
			if version.Commit != "unknown" && version.Commit != "" {
				fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			}
			if version.Date != "unknown" && version.Date != "" {
				fmt.Fprintf(out, "  built:  %s\n", version.Date)
			}
		},
	}
}
