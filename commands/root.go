package commands

import (
	"os"

	"usercenter/config"
	"usercenter/database"

	"github.com/spf13/cobra"
)

// NewRootCmd assembles the CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "usercenter",
		Short:        "User-center application skeleton",
		Long:         "A starter user-management web application: HTTP API with login/logout,\nrole-based user CRUD, an interactive user-creation command and fixtures.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(NewCreateUserCmd())
	cmd.AddCommand(NewLoadFixturesCmd())

	return cmd
}

// Execute runs the CLI and exits non-zero on any command error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// ensureDatabase initializes configuration and the database connection.
// Tests inject database.DB directly, in which case both steps are skipped.
func ensureDatabase() {
	if database.DB != nil {
		return
	}
	config.InitConfig()
	database.InitDB()
}
