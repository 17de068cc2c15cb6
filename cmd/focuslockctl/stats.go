package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := authedClient(cmd.Context())
		if err != nil {
			return err
		}
		st, err := c.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("  Today:   %d min, %d sessions, %d tasks\n", st.Daily.FocusMinutes, st.Daily.Sessions, st.Daily.CompletedTasks)
		fmt.Printf("  Week:    %d min, %d sessions\n", st.Weekly.FocusMinutes, st.Weekly.Sessions)
		fmt.Printf("  Month:   %d min, %d sessions\n", st.Monthly.FocusMinutes, st.Monthly.Sessions)
		fmt.Printf("  Streak:  %d day(s)\n", st.Streak)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
