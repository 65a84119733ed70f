package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/auth"
)

func newUsersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage API users",
	}
	cmd.AddCommand(newUsersAddCommand(a))
	return cmd
}

func newUsersAddCommand(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Long:  `Create a user. The password is prompted for when --password is omitted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.passwordOrPrompt(password)
			if err != nil {
				return err
			}

			repo, err := OpenRepository(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := auth.NewService(repo, auth.NewTokens(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.TokenTTL), a.logger)
			user, err := svc.Register(cmd.Context(), username, pw)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created successfully with ID %s\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
