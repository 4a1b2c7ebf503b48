package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// readSecret returns flagValue, or the first line of in when the flag is empty.
func readSecret(in io.Reader, flagValue, what string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%s is required", what)
	}
	secret := strings.TrimRight(sc.Text(), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return secret, nil
}

func signedInLine(u domain.User) string {
	return fmt.Sprintf("signed in as %s (%s)", u.DisplayName(), u.Role)
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long:  "Sign in with email and password. When --password is omitted it is read from the first line of stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password, "password")
			if err != nil {
				return err
			}
			env, err := a.session.Login(cmd.Context(), domain.Credentials{Email: email, Password: pw})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signedInLine(env.User))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var (
		reg      domain.Registration
		role     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password, "password")
			if err != nil {
				return err
			}
			reg.Password = pw
			reg.Role = domain.Role(strings.ToLower(strings.TrimSpace(role)))

			env, err := a.session.Signup(cmd.Context(), reg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.session.Snapshot().Authenticated() {
				fmt.Fprintln(out, "account created, "+signedInLine(env.User))
				return nil
			}
			fmt.Fprintln(out, "account created, run marketctl login to sign in")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "account email")
	f.StringVar(&password, "password", "", "account password (read from stdin when empty)")
	f.StringVar(&role, "role", string(domain.RoleInfluencer), "brand or influencer")
	f.StringVar(&reg.Name, "name", "", "display name")
	f.StringVar(&reg.BrandName, "brand-name", "", "brand name (brand accounts)")
	f.StringVar(&reg.Industry, "industry", "", "industry (brand accounts)")
	f.StringVar(&reg.Website, "website", "", "website URL (brand accounts)")
	f.StringVar(&reg.Username, "username", "", "handle (influencer accounts)")
	f.StringVar(&reg.Category, "category", "", "content category (influencer accounts)")
	f.Int64Var(&reg.Followers, "followers", 0, "follower count (influencer accounts)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login-token <token>",
		Short: "Sign in with an existing bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.session.LoginWithToken(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signedInLine(u))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireAuth()
			if err != nil {
				return err
			}
			if refresh {
				if u, err = a.session.RefreshProfile(cmd.Context()); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the server first")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	var change domain.PasswordChange
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			if change.CurrentPassword == "" || change.NewPassword == "" {
				return errors.New("--current and --new are required")
			}
			if err := a.session.UpdatePassword(cmd.Context(), change); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&change.CurrentPassword, "current", "", "current password")
	cmd.Flags().StringVar(&change.NewPassword, "new", "", "new password")
	return cmd
}

func newDeleteAccountCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAuth(); err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			if err := a.session.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
