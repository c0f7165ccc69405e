package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/nav"
	"github.com/billed-dev/billed/internal/remote"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and show your bills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(newApp(cmd, opts.cfg), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runLogin(a *app, email, password string) error {
	u, err := remote.NewHTTPStore(a.cfg.API.BaseURL, "").Login(a.ctx, email, password)
	a.record(model.User{Email: email}, "login", err, "", "")
	if err != nil {
		return fmt.Errorf("login: %s: %w", remote.UserMessage(remote.Classify(err), err), err)
	}
	if err := a.session.Login(u); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Connecté: %s (%s)\n\n", u.Email, u.Type)
	a.router.Navigate(nav.RouteBills)
	return a.err
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cmd, opts.cfg)
			u, _ := a.session.Current()
			if err := a.session.Logout(); err != nil {
				return err
			}
			a.record(u, "logout", nil, "", "")
			fmt.Fprintln(a.out, "Déconnecté.")
			return nil
		},
	}
}
