package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"usercenter/database"
	"usercenter/repositories"
	"usercenter/services"

	"github.com/spf13/cobra"
)

// maxPromptAttempts bounds how often a wizard question is re-asked before
// the command gives up.
const maxPromptAttempts = 3

// NewCreateUserCmd builds the interactive user-creation command. Values can
// also be supplied via flags, which skips the corresponding prompt but runs
// the same validator.
func NewCreateUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
		admin    bool
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a new user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ensureDatabase()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if email, err = resolveInput(in, out, "Email", email, validateEmail); err != nil {
				return err
			}
			if name, err = resolveInput(in, out, "Name", name, validateName); err != nil {
				return err
			}
			if password, err = resolveInput(in, out, "Password", password, validatePassword); err != nil {
				return err
			}

			roles := []string{database.RoleUser}
			if admin {
				roles = append(roles, database.RoleAdmin)
			}
			active := !inactive

			svc := services.NewUserService(repositories.NewUserRepository(database.DB))
			user, err := svc.CreateUser(&services.CreateUserInput{
				Email:    email,
				Name:     name,
				Password: password,
				Roles:    roles,
				Active:   &active,
			})
			if err != nil {
				if errors.Is(err, services.ErrEmailExists) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\n [ERROR] A user with email %q already exists.\n\n", email)
				}
				return err
			}

			fmt.Fprintf(out, "\n [OK] Created user %s (%s) with roles: %s\n\n", user.Email, user.Name, strings.Join(roles, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the new user")
	cmd.Flags().StringVar(&name, "name", "", "Display name of the new user")
	cmd.Flags().StringVar(&password, "password", "", "Password of the new user")
	cmd.Flags().BoolVar(&admin, "admin", false, "Also assign the admin role")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")

	return cmd
}

// resolveInput validates a flag-provided value, or prompts for one when the
// flag was left empty.
func resolveInput(in *bufio.Reader, out io.Writer, label, value string, validate func(string) error) (string, error) {
	if value != "" {
		if err := validate(value); err != nil {
			return "", err
		}
		return value, nil
	}
	return prompt(in, out, label, validate)
}

// prompt asks the question until the answer passes validation, re-asking
// with the validation message on failure, up to maxPromptAttempts times.
func prompt(in *bufio.Reader, out io.Writer, label string, validate func(string) error) (string, error) {
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		fmt.Fprintf(out, "%s: ", label)

		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading input: %w", err)
		}
		value := strings.TrimSpace(line)

		if vErr := validate(value); vErr != nil {
			fmt.Fprintf(out, " %s\n", vErr)
			if err == io.EOF {
				return "", vErr
			}
			continue
		}
		return value, nil
	}
	return "", fmt.Errorf("too many invalid answers for %s", strings.ToLower(label))
}
