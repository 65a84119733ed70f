package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/auth"
)

func newTokenCommand(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for a user",
		Long: `Check a user's password and print a signed bearer token for the API.
The token is valid for TOKEN_TTL.`,
		Args: cobra.NoArgs,
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
			token, err := svc.Login(cmd.Context(), username, pw)
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return errors.New("invalid username or password")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
