// Command focuslockctl drives focus sessions against a focuslock server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"focuslock/internal/adapter/sqlite"
	"focuslock/internal/client"

	"github.com/spf13/cobra"
)

var (
	flagServer string
	flagState  string
)

var errNotLoggedIn = errors.New("not logged in (run focuslockctl login)")

var rootCmd = &cobra.Command{
	Use:           "focuslockctl",
	Short:         "Focus session lock client",
	Long:          "Start focus sessions, watch the countdown, and pay to unlock early.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", env("FOCUSLOCK_SERVER", "http://localhost:8080"), "focuslock server URL")
	rootCmd.PersistentFlags().StringVar(&flagState, "state", filepath.Join(stateDir(), "state.db"), "Local state database")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

// stateDir returns the XDG-compliant directory for client state.
func stateDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focuslock")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "focuslock")
}

func openState() (*sqlite.KV, error) {
	return sqlite.Open(flagState)
}

// authedClient returns a client carrying the persisted login token.
func authedClient(ctx context.Context) (*client.Client, error) {
	kv, err := openState()
	if err != nil {
		return nil, err
	}
	defer func() { _ = kv.Close() }()

	token, _, ok, err := client.LoadAuth(ctx, kv)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNotLoggedIn
	}
	return client.New(flagServer).WithToken(token), nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
