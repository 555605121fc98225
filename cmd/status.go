package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"venue-client/internal/api"
	"venue-client/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current configuration and table session",
	Long: `Shows the venue server, the config file and the saved table session.
When a session is saved, the venue is asked whether it is still open.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║              venue-client status               ║")
	fmt.Println("╠════════════════════════════════════════════════╣")
	fmt.Printf("║  Server: %s\n", config.GetServerURL())
	fmt.Printf("║  Config: %s\n", config.Path())

	id := identityStore().Current()
	if !id.HasSession() {
		fmt.Println("║  Session: ✗ none")
		fmt.Println("║")
		fmt.Println("║  Run 'venue-client join <tableId>' to start")
		fmt.Println("╚════════════════════════════════════════════════╝")
		return nil
	}

	fmt.Printf("║  Table:   %s\n", id.TableID)
	fmt.Printf("║  Session: %s\n", id.SessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	active, err := newClient().ActiveSession(ctx, id.TableID)
	switch {
	case err != nil:
		fmt.Printf("║  State:   ? %s\n", api.HumanMessage(err, "could not reach the venue"))
	case active != nil && active.SessionID == id.SessionID:
		fmt.Printf("║  State:   ✓ open, last activity %s\n", active.LastActivityAt.Local().Format(time.Kitchen))
	default:
		fmt.Println("║  State:   ✗ closed by the venue, join again")
	}
	fmt.Println("╚════════════════════════════════════════════════╝")
	return nil
}
