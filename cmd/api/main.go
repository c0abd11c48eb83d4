package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamflow/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "teamflow",
		Short: "Teamflow API Server",
		Long:  `Teamflow is a collaborative project and task management backend with organizations, boards, time tracking and a live change feed.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
