package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"venue-client/internal/api"
	"venue-client/internal/bootstrap"
)

var joinCmd = &cobra.Command{
	Use:   "join <tableId>",
	Short: "Join a table's session",
	Long: `Checks the table with the venue, then reuses the saved session when the
venue still has it open, or starts (or picks up) the table's session.

The session is saved so later commands can use it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := joinTable(cmd.Context(), args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func joinTable(ctx context.Context, tableID string) (*bootstrap.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := bootstrap.Join(ctx, newClient(), identityStore(), tableID)
	switch {
	case errors.Is(err, api.ErrTableNotFound):
		return nil, fmt.Errorf("✗ table %q does not exist, check the QR code", tableID)
	case err != nil:
		return nil, fmt.Errorf("✗ %s", api.HumanMessage(err, "Could not join the table."))
	}

	verb := "Started"
	if res.Reused {
		verb = "Resumed"
	}
	fmt.Println("✅ " + verb + " table session")
	fmt.Println("─────────────────────────────────")
	if res.Table != nil && res.Table.Number > 0 {
		fmt.Printf("  🪑 Table:   #%d (%s)\n", res.Table.Number, res.Identity.TableID)
	} else {
		fmt.Printf("  🪑 Table:   %s\n", res.Identity.TableID)
	}
	fmt.Printf("  🔑 Session: %s\n", res.Identity.SessionID)
	fmt.Println()
	return res, nil
}
