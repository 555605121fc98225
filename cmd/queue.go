package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"venue-client/internal/api"
	"venue-client/internal/config"
	"venue-client/internal/lifecycle"
	"venue-client/internal/queue"
)

var queueCmd = &cobra.Command{
	Use:   "queue [requestId]",
	Short: "Show where your songs are in the queue",
	Long: `Without arguments, lists the active requests made from this table's
session with their queue positions.

With a request id, shows that request's position. --watch keeps refreshing
it until the song leaves the queue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueue,
}

func init() {
	queueCmd.Flags().BoolP("watch", "w", false, "keep refreshing the position")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient()
	tracker := queue.NewTracker(client)

	if len(args) == 0 {
		return listMine(ctx, client, tracker)
	}

	requestID := args[0]
	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		pos, err := tracker.Position(ctx, requestID)
		if err != nil {
			return fmt.Errorf("✗ %s", api.HumanMessage(err, "Could not load the queue."))
		}
		fmt.Printf("%s: %s\n", requestID, describePosition(pos))
		return nil
	}

	poller := queue.NewPoller(tracker, config.Get().Queue.PollInterval,
		func(p queue.Position) {
			fmt.Printf("%s: %s\n", requestID, describePosition(p))
		},
		func(err error) bool {
			fmt.Fprintf(os.Stderr, "✗ %s\n", api.HumanMessage(err, "Could not refresh the queue."))
			return !lifecycle.IsSessionExpired(err)
		},
	)
	last, err := poller.Run(ctx, requestID)
	if err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() == nil && !last.Ranked() {
		fmt.Println("The song is no longer waiting in the queue.")
	}
	return nil
}

func listMine(ctx context.Context, client *api.Client, tracker *queue.Tracker) error {
	id := identityStore().Current()
	if !id.HasSession() {
		return fmt.Errorf("no table session: run 'venue-client join <tableId>' first")
	}

	mine, err := tracker.Mine(ctx, id.SessionID)
	if err != nil {
		return fmt.Errorf("✗ %s", api.HumanMessage(err, "Could not load your requests."))
	}
	if len(mine) == 0 {
		fmt.Println("You have no songs in the queue.")
		return nil
	}

	active, err := client.ActiveRequests(ctx)
	if err != nil {
		return fmt.Errorf("✗ %s", api.HumanMessage(err, "Could not load the queue."))
	}
	for _, r := range mine {
		pos := queue.Locate(active, r.ID)
		fmt.Printf("  %-10s %s — %s  (%s)\n", describePosition(pos), r.Title, r.Artist, r.ID)
	}
	return nil
}

func describePosition(p queue.Position) string {
	if p.Ranked() && p.Status != "" {
		return fmt.Sprintf("%s [%s]", p, p.Status)
	}
	return p.String()
}
