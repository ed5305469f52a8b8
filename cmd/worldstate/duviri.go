package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrWong99/worldstate/pkg/worldstate"
)

func duviriCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duviri",
		Short: "Print the Duviri spiral mood",
		Args:  cobra.NoArgs,
		RunE:  runDuviri,
	}
	cmd.Flags().String("at", "", "RFC3339 time to compute the mood for (default now)")
	cmd.Flags().Int("next", 4, "number of following moods to list")
	return cmd
}

func runDuviri(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	at := now
	if s, _ := cmd.Flags().GetString("at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		at = t
	}

	c := worldstate.DuviriAt(at)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s until %s (%s)\n", c.State, c.Expiry.Format(time.RFC3339), humanize.RelTime(c.Expiry, now, "ago", "from now"))

	n, _ := cmd.Flags().GetInt("next")
	for range n {
		c = worldstate.DuviriAt(c.Expiry)
		fmt.Fprintf(w, "  then %-7s %s\n", c.State, c.Activation.Format(time.RFC3339))
	}
	return nil
}
