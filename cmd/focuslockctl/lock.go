package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"focuslock/internal/app"
	"focuslock/internal/client"
	"focuslock/internal/domain"

	"github.com/spf13/cobra"
)

var (
	flagMinutes int
	flagBlock   []string
	flagWatch   bool
	flagCard    string
	flagExpiry  string
	flagCVV     string
	flagLimit   int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a focus session",
	RunE:  runStart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active focus session",
	RunE:  runStatus,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Pay the unlock fee and end the session early",
	RunE:  runUnlock,
}

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Show the current unlock fee",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := authedClient(cmd.Context())
		if err != nil {
			return err
		}
		fee, err := c.Fee(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("  Unlock fee: %s\n", domain.FormatUSD(fee))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past focus sessions",
	RunE:  runHistory,
}

func init() {
	startCmd.Flags().IntVarP(&flagMinutes, "minutes", "m", 0, "Session length in minutes (default from settings)")
	startCmd.Flags().StringSliceVarP(&flagBlock, "block", "b", nil, "Apps to block (default from focus list)")
	startCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch the countdown after starting")

	statusCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Refresh every second until the session ends")

	unlockCmd.Flags().StringVar(&flagCard, "card", "", "Card number")
	unlockCmd.Flags().StringVar(&flagExpiry, "expiry", "", "Card expiry (MM/YY)")
	unlockCmd.Flags().StringVar(&flagCVV, "cvv", "", "Card CVV")

	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 10, "Number of sessions to show")

	rootCmd.AddCommand(startCmd, statusCmd, unlockCmd, feeCmd, historyCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := authedClient(ctx)
	if err != nil {
		return err
	}
	session, err := c.Start(ctx, app.StartInput{Minutes: flagMinutes, BlockedApps: flagBlock})
	if err != nil {
		return err
	}
	fmt.Printf("  Locked for %d minutes, until %s\n", session.Duration, session.EndsAt.Local().Format("15:04:05"))
	if len(session.BlockedApps) > 0 {
		fmt.Printf("  Blocking: %v\n", session.BlockedApps)
	}
	if flagWatch {
		return watch(ctx, c, os.Stdout, time.Second)
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := authedClient(ctx)
	if err != nil {
		return err
	}
	if flagWatch {
		return watch(ctx, c, os.Stdout, time.Second)
	}

	status, err := c.Status(ctx)
	if err != nil {
		return err
	}
	printStatus(os.Stdout, status)
	return nil
}

func printStatus(out io.Writer, status app.SessionStatus) {
	switch {
	case status.Completed != nil:
		fmt.Fprintf(out, "  Session complete: %d minutes of focus.\n", status.Completed.Duration)
	case status.Session == nil:
		fmt.Fprintln(out, "  No active focus session.")
	default:
		remaining := time.Duration(status.RemainingSeconds) * time.Second
		fmt.Fprintf(out, "  %s remaining (%.0f%%), unlock fee %s\n",
			client.FormatRemaining(remaining), status.Progress*100, domain.FormatUSD(status.UnlockFee))
	}
}

// watch re-derives the remaining time locally on every tick and asks the
// server again once the countdown reaches zero.
func watch(ctx context.Context, c *client.Client, out io.Writer, tick time.Duration) error {
	status, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if status.Session == nil {
		printStatus(out, status)
		return nil
	}
	session := *status.Session
	fee := status.UnlockFee

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		remaining := domain.Remaining(session, time.Now())
		fmt.Fprintf(out, "\r  %s remaining, unlock fee %s ", client.FormatRemaining(remaining), domain.FormatUSD(fee))

		if remaining == 0 {
			latest, err := c.Status(ctx)
			if err != nil {
				fmt.Fprintln(out)
				return err
			}
			// Session ended (or was unlocked elsewhere).
			if latest.Session == nil || latest.Session.ID != session.ID {
				fmt.Fprintln(out)
				printStatus(out, latest)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case <-ticker.C:
		}
	}
}

func runUnlock(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	card := domain.Card{Number: flagCard, Expiry: flagExpiry, CVV: flagCVV}
	if err := domain.ValidateCard(card); err != nil {
		return err
	}

	c, err := authedClient(ctx)
	if err != nil {
		return err
	}
	fee, err := c.Fee(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Charging %s...\n", domain.FormatUSD(fee))

	entry, err := c.Unlock(ctx, card)
	var declined *app.UnlockDeclinedError
	if errors.As(err, &declined) {
		return fmt.Errorf("%w; unlock fee is now %s after %d attempt(s)",
			declined.Err, domain.FormatUSD(declined.NextFee), declined.Attempts)
	}
	if err != nil {
		return err
	}
	fmt.Printf("  Unlocked. Receipt %s\n", entry.UnlockPaymentID)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := authedClient(ctx)
	if err != nil {
		return err
	}
	items, err := c.History(ctx, flagLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("  No sessions yet.")
		return nil
	}
	for _, e := range items {
		how := "completed"
		if e.EarlyUnlock {
			how = "unlocked early"
		}
		fmt.Printf("  %s  %3d min  %s\n", e.StartedAt.Local().Format("2006-01-02 15:04"), e.Duration, how)
	}
	return nil
}
