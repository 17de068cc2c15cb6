package main

import (
	"context"
	"errors"
	"fmt"

	"focuslock/internal/client"

	"github.com/spf13/cobra"
)

var (
	flagEmail    string
	flagPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return authenticate(cmd.Context(), client.New(flagServer).Register)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return authenticate(cmd.Context(), client.New(flagServer).Login)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the login",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := client.New(flagServer).ResetPassword(cmd.Context(), flagEmail); err != nil {
			return err
		}
		fmt.Printf("  Reset requested for %s\n", flagEmail)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&flagEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&flagPassword, "password", "p", env("FOCUSLOCK_PASSWORD", ""), "Account password")
		_ = c.MarkFlagRequired("email")
	}
	resetPasswordCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Account email")
	_ = resetPasswordCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, resetPasswordCmd)
}

type authFunc func(ctx context.Context, email, password string) (client.AuthResult, error)

func authenticate(ctx context.Context, fn authFunc) error {
	res, err := fn(ctx, flagEmail, flagPassword)
	if err != nil {
		return err
	}

	kv, err := openState()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	if err := client.SaveAuth(ctx, kv, res.Token, res.User); err != nil {
		return err
	}
	fmt.Printf("  Logged in as %s <%s>\n", res.User.Name, res.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	kv, err := openState()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	token, _, ok, err := client.LoadAuth(ctx, kv)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Not logged in.")
		return nil
	}

	// A stale token has nothing left to revoke server-side.
	if err := client.New(flagServer).WithToken(token).Logout(ctx); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	if err := client.ClearAuth(ctx, kv); err != nil {
		return err
	}
	fmt.Println("  Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	kv, err := openState()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	_, data, ok, err := client.LoadAuth(ctx, kv)
	if err != nil {
		return err
	}
	if !ok {
		return errNotLoggedIn
	}
	fmt.Printf("  %s <%s> (id %d)\n", data.Name, data.Email, data.ID)
	return nil
}
