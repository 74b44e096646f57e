package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/kanban/cmd/api/commands"
)

// @title Kanban API
// @version 1.0
// @description Personal kanban board with a live task feed

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "kanban",
		Short: "Kanban API Server",
		Long:  `Kanban serves a personal three-column task board with live updates pushed to every open session.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewTaskCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
