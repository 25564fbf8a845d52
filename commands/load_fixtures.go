package commands

import (
	"fmt"

	"usercenter/config"
	"usercenter/database"
	"usercenter/fixtures"

	"github.com/spf13/cobra"
)

// NewLoadFixturesCmd builds the fixture-loading command: N fake users plus
// one admin account, with roles taken from the seeded catalog.
func NewLoadFixturesCmd() *cobra.Command {
	var (
		count int
		seed  uint64
		purge bool
	)

	cmd := &cobra.Command{
		Use:   "load-fixtures",
		Short: "Seed the database with fake users and an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ensureDatabase()
			cfg := config.AppConfig

			if !cmd.Flags().Changed("count") && cfg.Fixtures.UserCount > 0 {
				count = cfg.Fixtures.UserCount
			}

			placeholder := cfg.Fixtures.DefaultPassword
			if placeholder == "" {
				placeholder = "password"
			}

			opts := fixtures.LoadOptions{
				UserCount:           count,
				PlaceholderPassword: placeholder,
				AdminEmail:          cfg.Admin.Email,
				AdminName:           cfg.Admin.Name,
				AdminPassword:       cfg.Admin.Password,
				Seed:                seed,
				Purge:               purge,
			}

			if err := fixtures.Load(database.DB, opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n [OK] Loaded %d fake users", count)
			if opts.AdminEmail != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " and admin %s", opts.AdminEmail)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "Number of fake users to create")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Faker seed for reproducible fixtures (0 = random)")
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete existing users before loading")

	return cmd
}
