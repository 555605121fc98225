package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"venue-client/internal/api"
	"venue-client/internal/lifecycle"
)

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Close the table session and forget it",
	Long: `Tells the venue the table session is over and removes the saved session.

Run 'venue-client join <tableId>' to order again.`,
	RunE: runLeave,
}

func init() {
	rootCmd.AddCommand(leaveCmd)
}

func runLeave(cmd *cobra.Command, args []string) error {
	ids := identityStore()
	id := ids.Current()
	if !id.HasSession() {
		fmt.Println("No table session saved")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := newClient().CloseSession(ctx, id.SessionID); err != nil && !lifecycle.IsSessionExpired(err) {
		log.Warn().Err(err).Str("session_id", id.SessionID).Msg("close session")
		fmt.Printf("⚠️  %s\n", api.HumanMessage(err, "The venue did not confirm the close."))
	}

	if err := ids.Clear(); err != nil {
		return fmt.Errorf("forget session: %w", err)
	}
	fmt.Println("✓ Left the table and forgot the session")
	return nil
}
