// Package cmd implements the venue-client commands.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"venue-client/internal/api"
	"venue-client/internal/config"
	"venue-client/internal/identity"
	"venue-client/internal/logger"
)

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "venue-client",
	Short: "Order music for your table from the terminal",
	Long: `venue-client joins a venue table session, keeps it alive while you are
around, and lets you search the catalog and request songs for the shared
queue.

Run it without arguments to be guided through joining a table.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runInteractive,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("server", "s", "", "venue API base URL (default from config, http://localhost:4000/api)")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("init config: %w", err)
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		config.SetServerURL(server)
	}

	closer, err := logger.Setup(config.Get().Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logCloser = closer
	log.Debug().Str("config", config.Path()).Str("server", config.GetServerURL()).Msg("config loaded")
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// runInteractive resumes the saved table session or asks for a table, then
// opens the request screen.
func runInteractive(cmd *cobra.Command, args []string) error {
	printBanner(cmd.OutOrStdout())

	ids := identityStore()
	current := ids.Current()
	if current.HasSession() {
		fmt.Printf("Saved session found for table %s\n\n", current.TableID)
		if askYesNo("Continue at this table?") {
			return runRequestScreen(cmd.Context(), requestOptions{})
		}
		fmt.Println()
	}

	fmt.Print("Table id (from the QR code): ")
	tableID, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return errors.New("a table id is required")
	}

	if _, err := joinTable(cmd.Context(), tableID); err != nil {
		return err
	}
	return runRequestScreen(cmd.Context(), requestOptions{})
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║              🎵 venue-client                   ║")
	fmt.Fprintln(w, "║                                                ║")
	fmt.Fprintln(w, "║   Request songs for your table's queue         ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
}

func newClient() *api.Client {
	cfg := config.Get()
	return api.NewClient(api.Config{
		BaseURL: config.GetServerURL(),
		Timeout: cfg.Server.Timeout,
		Market:  cfg.Server.Market,
	})
}

func identityStore() *identity.Store {
	return identity.NewStore(config.Store())
}

func askYesNo(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [Y/n]: ", prompt)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "" || answer == "y" || answer == "yes"
}
