package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"venue-client/internal/venuesim"
)

var serveDevCmd = &cobra.Command{
	Use:   "serve-dev",
	Short: "Run an in-memory venue backend for local testing",
	Long: `Starts a venue backend that keeps tables, sessions and song requests in
memory. Tables T1..Tn exist from the start and the catalog is a small fixed
song list. Point the client at it with --server http://localhost:4000.`,
	RunE: runServeDev,
}

func init() {
	f := serveDevCmd.Flags()
	f.String("addr", ":4000", "listen address")
	f.Int("tables", 12, "number of tables to create")
	f.Duration("idle", 0, "idle timeout before a session expires (default 3m)")
	f.Duration("absolute", 0, "maximum session lifetime (default 4h)")
	f.Bool("metrics", false, "serve /metrics")
	f.Bool("release", false, "run gin in release mode")
	rootCmd.AddCommand(serveDevCmd)
}

func runServeDev(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	cfg := venuesim.ServerConfig{}
	cfg.Addr, _ = f.GetString("addr")
	cfg.ExposeMetrics, _ = f.GetBool("metrics")
	cfg.Release, _ = f.GetBool("release")
	cfg.Store.Tables, _ = f.GetInt("tables")
	cfg.Store.IdleTimeout, _ = f.GetDuration("idle")
	cfg.Store.AbsoluteTimeout, _ = f.GetDuration("absolute")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return venuesim.NewServer(cfg).Run(ctx)
}
