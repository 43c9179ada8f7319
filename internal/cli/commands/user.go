package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"waist/internal/auth"
	"waist/internal/storage"
)

func (r *runner) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage web login accounts",
	}

	var password string
	readPassword := func() (string, error) {
		if password != "" {
			return password, nil
		}
		return r.prompt("Password: ")
	}

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			pw, err := readPassword()
			if err != nil {
				return err
			}
			if err := auth.ValidatePassword(pw); err != nil {
				return err
			}

			err = env.Credentials.CreateUser(cmd.Context(), username, pw)
			if errors.Is(err, storage.ErrUserExists) {
				return fmt.Errorf("username %q already exists", username)
			}
			if err != nil {
				return err
			}
			r.out.Success("User '%s' created.", username)
			return nil
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a new password without the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			exists, err := env.Credentials.UserExists(cmd.Context(), username)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no such user %q", username)
			}

			pw, err := readPassword()
			if err != nil {
				return err
			}
			if err := auth.ValidatePassword(pw); err != nil {
				return err
			}
			if err := env.Credentials.UpdatePassword(cmd.Context(), username, pw); err != nil {
				return err
			}
			r.out.Success("Password updated for '%s'.", username)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.AddCommand(create, passwd)
	return cmd
}
